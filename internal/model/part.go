package model

import "time"

// Part is a catalog entry for a spare part tracked by quantity.
type Part struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
	// LegacyStock is the aggregate count from before per-location inventory.
	// It is kept for old reports and never updated by stock operations.
	LegacyStock *int       `json:"legacy_stock,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// DefaultUnit is used when a part is created without a unit of measure.
const DefaultUnit = "pcs"

// Site is a golf course or other operating location that holds stock.
type Site struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
