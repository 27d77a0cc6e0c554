package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// movement is one signed change to one inventory record.
type movement struct {
	partID      int64
	location    model.Location
	delta       int
	kind        string
	refType     string
	refID       *int64
	destination *int64
	docCode     string
	note        string
}

// batch groups the ledger entries written by one operation.
type batch struct {
	id     string
	userID *int64
}

// readQuantity returns the quantity at a location and whether a record exists.
func readQuantity(ctx context.Context, q store.Querier, partID int64, loc model.Location) (int, bool, error) {
	var qty int
	err := q.QueryRowContext(ctx,
		`SELECT quantity FROM inventory WHERE part_id = ? AND site_id IS ?`,
		partID, loc.Nullable(),
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading inventory: %w", err)
	}
	return qty, true, nil
}

// apply changes one inventory record and writes its ledger entry. A deduction
// that would leave the record negative, or that hits a location with no
// record, fails with InsufficientStockError before anything is written.
func (b *batch) apply(ctx context.Context, u *UnitOfWork, m movement) error {
	if !m.location.Valid() {
		return invalidRequest("location is %s", m.location)
	}
	if m.delta == 0 {
		return invalidRequest("zero quantity movement for part %d", m.partID)
	}

	prev, found, err := readQuantity(ctx, u, m.partID, m.location)
	if err != nil {
		return err
	}
	next := prev + m.delta
	if next < 0 {
		return shortageError(ctx, u, m, prev)
	}

	switch {
	case !found:
		if id, ok := m.location.SiteID(); ok {
			site, err := store.GetSite(ctx, u, id)
			if err != nil {
				return err
			}
			if site == nil {
				return notFound("site %d", id)
			}
		}
		_, err = u.ExecContext(ctx,
			`INSERT INTO inventory (part_id, site_id, quantity) VALUES (?, ?, ?)`,
			m.partID, m.location.Nullable(), next,
		)
		if err != nil {
			return fmt.Errorf("creating inventory record: %w", err)
		}
	default:
		// The guard re-checks sufficiency against the row being written.
		need := 0
		if m.delta < 0 {
			need = -m.delta
		}
		result, err := u.ExecContext(ctx,
			`UPDATE inventory SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
			 WHERE part_id = ? AND site_id IS ? AND quantity >= ?`,
			m.delta, m.partID, m.location.Nullable(), need,
		)
		if err != nil {
			return fmt.Errorf("updating inventory: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking inventory update: %w", err)
		}
		if n != 1 {
			current, _, err := readQuantity(ctx, u, m.partID, m.location)
			if err != nil {
				return err
			}
			return shortageError(ctx, u, m, current)
		}
	}

	quantity := m.delta
	if quantity < 0 {
		quantity = -quantity
	}
	_, err = u.ExecContext(ctx,
		`INSERT INTO stock_transactions
		 (batch_id, kind, quantity, previous_balance, new_balance, part_id, site_id,
		  destination_site_id, ref_type, ref_id, document_code, user_id, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.id, m.kind, quantity, prev, next, m.partID, m.location.Nullable(),
		m.destination, m.refType, m.refID, nullString(m.docCode), b.userID, nullString(m.note),
	)
	if err != nil {
		return fmt.Errorf("writing stock transaction: %w", err)
	}
	return nil
}

func shortageError(ctx context.Context, q store.Querier, m movement, available int) error {
	name := fmt.Sprintf("part %d", m.partID)
	if p, err := store.GetPart(ctx, q, m.partID); err == nil && p != nil {
		name = p.Name
	}
	return &InsufficientStockError{
		Location: m.location,
		Shortages: []Shortage{{
			PartID:    m.partID,
			PartName:  name,
			Requested: -m.delta,
			Available: available,
		}},
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetQuantity returns the quantity of a part at a location. A location with
// no record holds zero.
func (s *Service) GetQuantity(ctx context.Context, uow *UnitOfWork, partID int64, loc model.Location) (int, error) {
	if !loc.Valid() {
		return 0, invalidRequest("location is %s", loc)
	}
	var qty int
	err := s.read(ctx, uow, func(q store.Querier) error {
		var err error
		qty, _, err = readQuantity(ctx, q, partID, loc)
		return err
	})
	return qty, err
}

// Receipt brings new stock into a location, for example a supplier delivery
// to the central warehouse.
type Receipt struct {
	PartID       int64
	Location     model.Location
	Quantity     int
	UserID       *int64
	DocumentCode string
	Note         string
}

// ReceiveStock adds stock at a location and records an IN entry.
func (s *Service) ReceiveStock(ctx context.Context, uow *UnitOfWork, r Receipt) (*Result, error) {
	if r.Quantity <= 0 {
		return nil, invalidRequest("receipt quantity must be positive")
	}
	return s.run(ctx, uow, r.UserID, func(u *UnitOfWork, b *batch) error {
		if err := requireActivePart(ctx, u, r.PartID); err != nil {
			return err
		}
		if err := requireActiveSite(ctx, u, r.Location); err != nil {
			return err
		}
		return b.apply(ctx, u, movement{
			partID:   r.PartID,
			location: r.Location,
			delta:    r.Quantity,
			kind:     model.MovementIn,
			refType:  model.RefReceipt,
			docCode:  r.DocumentCode,
			note:     r.Note,
		})
	})
}

// Adjustment corrects a location's quantity after a stock take. Delta is
// signed; a note explaining the correction is required.
type Adjustment struct {
	PartID   int64
	Location model.Location
	Delta    int
	UserID   *int64
	Note     string
}

// AdjustStock applies a stock-take correction.
func (s *Service) AdjustStock(ctx context.Context, uow *UnitOfWork, a Adjustment) (*Result, error) {
	if a.Delta == 0 {
		return nil, invalidRequest("adjustment delta must not be zero")
	}
	if a.Note == "" {
		return nil, invalidRequest("adjustment needs a note")
	}
	kind := model.MovementIn
	if a.Delta < 0 {
		kind = model.MovementOut
	}
	return s.run(ctx, uow, a.UserID, func(u *UnitOfWork, b *batch) error {
		if _, err := lookupPart(ctx, u, a.PartID); err != nil {
			return err
		}
		// A deleted site may still be drained, never topped up.
		if a.Delta > 0 {
			if err := requireActiveSite(ctx, u, a.Location); err != nil {
				return err
			}
		}
		return b.apply(ctx, u, movement{
			partID:   a.PartID,
			location: a.Location,
			delta:    a.Delta,
			kind:     kind,
			refType:  model.RefAdjustment,
			note:     a.Note,
		})
	})
}

func lookupPart(ctx context.Context, q store.Querier, id int64) (*model.Part, error) {
	p, err := store.GetPart(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("part %d", id)
	}
	return p, nil
}

func requireActivePart(ctx context.Context, q store.Querier, id int64) error {
	p, err := lookupPart(ctx, q, id)
	if err != nil {
		return err
	}
	if p.DeletedAt != nil {
		return invalidRequest("part %d is deleted", id)
	}
	return nil
}

// requireActiveSite fails when loc names a site that is missing or deleted.
// Other locations pass.
func requireActiveSite(ctx context.Context, q store.Querier, loc model.Location) error {
	id, ok := loc.SiteID()
	if !ok {
		return nil
	}
	site, err := store.GetSite(ctx, q, id)
	if err != nil {
		return err
	}
	if site == nil {
		return notFound("site %d", id)
	}
	if site.DeletedAt != nil {
		return invalidState("site %d is deleted", id)
	}
	return nil
}
