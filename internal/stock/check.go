package stock

import (
	"context"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// StockCheck compares a requested quantity with what a location holds.
type StockCheck struct {
	PartID     int64  `json:"part_id"`
	PartName   string `json:"part_name"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Sufficient bool   `json:"sufficient"`
}

// CheckSiteStock reports, per part, whether loc holds enough to cover the
// request. Lines for the same part are summed. Nothing is written.
func (s *Service) CheckSiteStock(ctx context.Context, uow *UnitOfWork, parts []model.JobPart, loc model.Location) ([]StockCheck, error) {
	var checks []StockCheck
	err := s.read(ctx, uow, func(q store.Querier) error {
		var err error
		checks, err = checkStock(ctx, q, parts, loc)
		return err
	})
	return checks, err
}

func checkStock(ctx context.Context, q store.Querier, parts []model.JobPart, loc model.Location) ([]StockCheck, error) {
	if !loc.Valid() {
		return nil, invalidRequest("location is %s", loc)
	}
	lines, err := mergeLines(parts)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.PartID
	}
	names, err := store.GetPartNames(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	checks := make([]StockCheck, len(lines))
	for i, l := range lines {
		name, ok := names[l.PartID]
		if !ok {
			return nil, notFound("part %d", l.PartID)
		}
		available, _, err := readQuantity(ctx, q, l.PartID, loc)
		if err != nil {
			return nil, err
		}
		checks[i] = StockCheck{
			PartID:     l.PartID,
			PartName:   name,
			Requested:  l.Quantity,
			Available:  available,
			Sufficient: available >= l.Quantity,
		}
	}
	return checks, nil
}

// shortages returns the failed checks as an error, or nil when all pass.
func shortages(loc model.Location, checks []StockCheck) error {
	var short []Shortage
	for _, c := range checks {
		if !c.Sufficient {
			short = append(short, Shortage{
				PartID:    c.PartID,
				PartName:  c.PartName,
				Requested: c.Requested,
				Available: c.Available,
			})
		}
	}
	if len(short) == 0 {
		return nil
	}
	return &InsufficientStockError{Location: loc, Shortages: short}
}

// mergeLines validates request lines and sums repeated parts, keeping the
// order in which parts first appear.
func mergeLines(parts []model.JobPart) ([]model.JobPart, error) {
	if len(parts) == 0 {
		return nil, invalidRequest("no parts requested")
	}
	index := make(map[int64]int, len(parts))
	var lines []model.JobPart
	for _, p := range parts {
		if p.PartID <= 0 {
			return nil, invalidRequest("invalid part id %d", p.PartID)
		}
		if p.Quantity <= 0 {
			return nil, invalidRequest("quantity for part %d must be positive", p.PartID)
		}
		if i, ok := index[p.PartID]; ok {
			lines[i].Quantity += p.Quantity
			continue
		}
		index[p.PartID] = len(lines)
		lines = append(lines, model.JobPart{PartID: p.PartID, Quantity: p.Quantity})
	}
	return lines, nil
}
