package stock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// Sentinels for errors.Is. The typed errors below match them.
var (
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrMissingInventoryRecord = errors.New("missing inventory record")
	ErrInvalidState           = errors.New("invalid state")
)

// Shortage describes one part that could not be fully satisfied.
type Shortage struct {
	PartID    int64  `json:"part_id"`
	PartName  string `json:"part_name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError lists every part an operation was short of.
type InsufficientStockError struct {
	Location  model.Location
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", s.PartName, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock at %s: %s", e.Location, strings.Join(parts, ", "))
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// MissingInventoryRecordError is returned when an operation needs an existing
// inventory record, such as central stock for a transfer.
type MissingInventoryRecordError struct {
	PartID   int64
	PartName string
	Location model.Location
}

func (e *MissingInventoryRecordError) Error() string {
	name := e.PartName
	if name == "" {
		name = fmt.Sprintf("part %d", e.PartID)
	}
	return fmt.Sprintf("no inventory record for %s at %s", name, e.Location)
}

func (e *MissingInventoryRecordError) Is(target error) bool {
	return target == ErrMissingInventoryRecord
}

// InvalidStateError is returned when the referenced transfer or job cannot be
// acted on in its current state.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return "invalid state: " + e.Reason }

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

func invalidState(format string, args ...any) error {
	return &InvalidStateError{Reason: fmt.Sprintf(format, args...)}
}
