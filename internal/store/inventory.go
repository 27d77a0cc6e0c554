package store

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// InventoryFilter narrows ListInventory. Zero fields are ignored.
type InventoryFilter struct {
	PartID   int64
	Location model.Location
	// NonZero hides records that sit at zero.
	NonZero bool
}

// ListInventory returns inventory records with part and site names.
func ListInventory(ctx context.Context, q Querier, f InventoryFilter) ([]model.Inventory, error) {
	ds := dialect.From(goqu.T("inventory").As("inv")).
		Join(goqu.T("parts").As("p"), goqu.On(goqu.Ex{"p.id": goqu.I("inv.part_id")})).
		LeftJoin(goqu.T("sites").As("s"), goqu.On(goqu.Ex{"s.id": goqu.I("inv.site_id")})).
		Select(
			goqu.I("inv.part_id"),
			goqu.I("inv.site_id"),
			goqu.I("inv.quantity"),
			goqu.I("inv.updated_at"),
			goqu.I("p.name"),
			goqu.COALESCE(goqu.I("s.name"), "").As("site_name"),
		).
		Order(goqu.I("p.name").Asc(), goqu.I("inv.site_id").Asc()).
		Prepared(true)

	if f.PartID > 0 {
		ds = ds.Where(goqu.Ex{"inv.part_id": f.PartID})
	}
	if f.Location.IsCentral() {
		ds = ds.Where(goqu.I("inv.site_id").IsNull())
	} else if siteID, ok := f.Location.SiteID(); ok {
		ds = ds.Where(goqu.Ex{"inv.site_id": siteID})
	}
	if f.NonZero {
		ds = ds.Where(goqu.I("inv.quantity").Gt(0))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building inventory query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	var items []model.Inventory
	for rows.Next() {
		var inv model.Inventory
		var siteID *int64
		if err := rows.Scan(&inv.PartID, &siteID, &inv.Quantity, &inv.UpdatedAt, &inv.PartName, &inv.SiteName); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		inv.Location = model.LocationFromNullable(siteID)
		items = append(items, inv)
	}
	return items, rows.Err()
}
