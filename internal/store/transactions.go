package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// TransactionFilter narrows ListTransactions. Zero fields are ignored.
type TransactionFilter struct {
	PartID   int64
	Location model.Location
	RefType  string
	RefID    int64
	BatchID  string
	Limit    uint
}

// ListTransactions returns ledger entries in the order they were written.
func ListTransactions(ctx context.Context, q Querier, f TransactionFilter) ([]model.StockTransaction, error) {
	ds := dialect.From(goqu.T("stock_transactions").As("t")).
		Join(goqu.T("parts").As("p"), goqu.On(goqu.Ex{"p.id": goqu.I("t.part_id")})).
		Select(
			"t.id", "t.batch_id", "t.kind", "t.quantity", "t.previous_balance", "t.new_balance",
			"t.part_id", "t.site_id", "t.destination_site_id", "t.ref_type", "t.ref_id",
			"t.document_code", "t.user_id", "t.note", "t.created_at", "p.name",
		).
		Order(goqu.I("t.id").Asc()).
		Prepared(true)

	if f.PartID > 0 {
		ds = ds.Where(goqu.Ex{"t.part_id": f.PartID})
	}
	if f.Location.IsCentral() {
		ds = ds.Where(goqu.I("t.site_id").IsNull())
	} else if siteID, ok := f.Location.SiteID(); ok {
		ds = ds.Where(goqu.Ex{"t.site_id": siteID})
	}
	if f.RefType != "" {
		ds = ds.Where(goqu.Ex{"t.ref_type": f.RefType})
	}
	if f.RefID > 0 {
		ds = ds.Where(goqu.Ex{"t.ref_id": f.RefID})
	}
	if f.BatchID != "" {
		ds = ds.Where(goqu.Ex{"t.batch_id": f.BatchID})
	}
	if f.Limit > 0 {
		ds = ds.Limit(f.Limit)
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building ledger query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.StockTransaction
	for rows.Next() {
		var t model.StockTransaction
		var siteID *int64
		var docCode, note sql.NullString
		if err := rows.Scan(&t.ID, &t.BatchID, &t.Kind, &t.Quantity, &t.PreviousBalance, &t.NewBalance,
			&t.PartID, &siteID, &t.DestinationID, &t.RefType, &t.RefID,
			&docCode, &t.UserID, &note, &t.CreatedAt, &t.PartName); err != nil {
			return nil, fmt.Errorf("scanning stock transaction: %w", err)
		}
		t.Location = model.LocationFromNullable(siteID)
		t.DocumentCode = docCode.String
		t.Note = note.String
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
