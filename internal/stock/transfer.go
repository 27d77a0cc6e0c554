package stock

import (
	"context"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// centralMove describes a central-to-site move and how its paired ledger
// entries are tagged.
type centralMove struct {
	lines   []model.JobPart
	site    int64
	refOut  string
	refIn   string
	refID   int64
	docCode string
	note    string
}

// moveFromCentral checks every line against central stock, then writes an
// OUT at central and a matching IN at the site per line. Central records are
// never created here: a part without one fails with MissingInventoryRecordError.
func moveFromCentral(ctx context.Context, u *UnitOfWork, b *batch, mv centralMove) error {
	lines, err := mergeLines(mv.lines)
	if err != nil {
		return err
	}
	central := model.Central()

	for _, l := range lines {
		_, found, err := readQuantity(ctx, u, l.PartID, central)
		if err != nil {
			return err
		}
		if !found {
			e := &MissingInventoryRecordError{PartID: l.PartID, Location: central}
			if p, err := store.GetPart(ctx, u, l.PartID); err == nil && p != nil {
				e.PartName = p.Name
			}
			return e
		}
	}

	checks, err := checkStock(ctx, u, lines, central)
	if err != nil {
		return err
	}
	if err := shortages(central, checks); err != nil {
		return err
	}

	site := model.AtSite(mv.site)
	if err := requireActiveSite(ctx, u, site); err != nil {
		return err
	}

	refID := mv.refID
	destination := mv.site
	for _, c := range checks {
		err := b.apply(ctx, u, movement{
			partID:      c.PartID,
			location:    central,
			delta:       -c.Requested,
			kind:        model.MovementOut,
			refType:     mv.refOut,
			refID:       &refID,
			destination: &destination,
			docCode:     mv.docCode,
			note:        mv.note,
		})
		if err != nil {
			return err
		}
		err = b.apply(ctx, u, movement{
			partID:   c.PartID,
			location: site,
			delta:    c.Requested,
			kind:     model.MovementIn,
			refType:  mv.refIn,
			refID:    &refID,
			docCode:  mv.docCode,
			note:     mv.note,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ExecuteStockTransfer moves a pending transfer's lines from central to its
// destination site and marks the transfer APPROVED.
func (s *Service) ExecuteStockTransfer(ctx context.Context, uow *UnitOfWork, transferID int64, userID *int64) (*Result, error) {
	return s.run(ctx, uow, userID, func(u *UnitOfWork, b *batch) error {
		t, err := store.GetStockTransfer(ctx, u, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return notFound("transfer %d", transferID)
		}
		if t.Status != model.TransferPending {
			return invalidState("transfer %d is %s, not %s", t.ID, t.Status, model.TransferPending)
		}
		if t.DestinationID == nil {
			return invalidState("transfer %d has no destination", t.ID)
		}
		if len(t.Items) == 0 {
			return invalidState("transfer %d has no items", t.ID)
		}

		lines := make([]model.JobPart, len(t.Items))
		for i, it := range t.Items {
			lines[i] = model.JobPart{PartID: it.PartID, Quantity: it.Quantity}
		}
		err = moveFromCentral(ctx, u, b, centralMove{
			lines:  lines,
			site:   *t.DestinationID,
			refOut: model.RefTransfer,
			refIn:  model.RefTransferIn,
			refID:  t.ID,
			note:   t.Note,
		})
		if err != nil {
			return err
		}

		ok, err := store.ApproveStockTransfer(ctx, u, t.ID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return invalidState("transfer %d is no longer pending", t.ID)
		}
		return nil
	})
}
