package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type locationKind uint8

const (
	locationUnspecified locationKind = iota
	locationCentral
	locationSite
)

// Location is where stock is held: either the central warehouse or a site.
// The zero value is unspecified and is rejected by stock operations, so that
// "no location given" is never read as "central".
type Location struct {
	kind   locationKind
	siteID int64
}

// Central returns the central warehouse location.
func Central() Location {
	return Location{kind: locationCentral}
}

// AtSite returns the location of a site.
func AtSite(id int64) Location {
	return Location{kind: locationSite, siteID: id}
}

// LocationFromNullable maps a nullable site_id column to a Location.
func LocationFromNullable(siteID *int64) Location {
	if siteID == nil {
		return Central()
	}
	return AtSite(*siteID)
}

// IsCentral reports whether l is the central warehouse.
func (l Location) IsCentral() bool { return l.kind == locationCentral }

// IsSite reports whether l is a site.
func (l Location) IsSite() bool { return l.kind == locationSite }

// Valid reports whether l was set to central or to a positive site ID.
func (l Location) Valid() bool {
	return l.kind == locationCentral || (l.kind == locationSite && l.siteID > 0)
}

// SiteID returns the site ID and true for site locations.
func (l Location) SiteID() (int64, bool) {
	if l.kind != locationSite {
		return 0, false
	}
	return l.siteID, true
}

// Nullable returns the value stored in a site_id column: nil for central.
func (l Location) Nullable() any {
	if l.kind == locationSite {
		return l.siteID
	}
	return nil
}

func (l Location) String() string {
	switch l.kind {
	case locationCentral:
		return "central"
	case locationSite:
		return "site:" + strconv.FormatInt(l.siteID, 10)
	default:
		return "unspecified"
	}
}

// ParseLocation parses "central" or "site:<id>".
func ParseLocation(s string) (Location, error) {
	if s == "central" {
		return Central(), nil
	}
	rest, ok := strings.CutPrefix(s, "site:")
	if !ok {
		return Location{}, fmt.Errorf("invalid location %q", s)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return Location{}, fmt.Errorf("invalid site id in location %q", s)
	}
	return AtSite(id), nil
}

func (l Location) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(l.String())
}

func (l *Location) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Location{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("location must be a string: %w", err)
	}
	parsed, err := ParseLocation(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
