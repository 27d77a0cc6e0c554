package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// CreateStockTransfer records a pending transfer and its lines in a single
// transaction. Stock does not move until the transfer is executed.
func CreateStockTransfer(ctx context.Context, db *sql.DB, destinationID *int64, items []model.StockTransferItem, note string, requestedBy *int64) (*model.StockTransfer, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("transfer needs at least one item")
	}
	for _, it := range items {
		if it.PartID <= 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("transfer items need a part and a positive quantity")
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO stock_transfers (destination_site_id, status, note, requested_by)
		 VALUES (?, ?, ?, ?)`,
		destinationID, model.TransferPending, note, requestedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating stock transfer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting stock transfer id: %w", err)
	}

	for _, it := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stock_transfer_items (transfer_id, part_id, quantity) VALUES (?, ?, ?)`,
			id, it.PartID, it.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("adding stock transfer item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stock transfer: %w", err)
	}
	return GetStockTransfer(ctx, db, id)
}

// GetStockTransfer returns a transfer with its lines, or nil if it does not exist.
func GetStockTransfer(ctx context.Context, q Querier, id int64) (*model.StockTransfer, error) {
	t := &model.StockTransfer{}
	var note sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, destination_site_id, status, note, requested_by, created_at, approved_by, approved_at
		 FROM stock_transfers WHERE id = ?`, id,
	).Scan(&t.ID, &t.DestinationID, &t.Status, &note, &t.RequestedBy, &t.CreatedAt, &t.ApprovedBy, &t.ApprovedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock transfer: %w", err)
	}
	t.Note = note.String

	rows, err := q.QueryContext(ctx,
		`SELECT ti.part_id, ti.quantity, p.name
		 FROM stock_transfer_items ti
		 JOIN parts p ON p.id = ti.part_id
		 WHERE ti.transfer_id = ?
		 ORDER BY ti.id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting stock transfer items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.StockTransferItem
		if err := rows.Scan(&it.PartID, &it.Quantity, &it.PartName); err != nil {
			return nil, fmt.Errorf("scanning stock transfer item: %w", err)
		}
		t.Items = append(t.Items, it)
	}
	return t, rows.Err()
}

// ListStockTransfers returns transfers without their lines, newest first,
// optionally filtered by status.
func ListStockTransfers(ctx context.Context, q Querier, status string) ([]model.StockTransfer, error) {
	ds := dialect.From("stock_transfers").
		Select("id", "destination_site_id", "status", "note", "requested_by", "created_at", "approved_by", "approved_at").
		Order(goqu.C("id").Desc()).
		Prepared(true)
	if status != "" {
		ds = ds.Where(goqu.Ex{"status": status})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building stock transfers query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.StockTransfer
	for rows.Next() {
		var t model.StockTransfer
		var note sql.NullString
		if err := rows.Scan(&t.ID, &t.DestinationID, &t.Status, &note, &t.RequestedBy, &t.CreatedAt, &t.ApprovedBy, &t.ApprovedAt); err != nil {
			return nil, fmt.Errorf("scanning stock transfer: %w", err)
		}
		t.Note = note.String
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// ApproveStockTransfer moves a pending transfer to APPROVED. It reports false
// when the transfer was not pending.
func ApproveStockTransfer(ctx context.Context, q Querier, id int64, approvedBy *int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE stock_transfers
		 SET status = ?, approved_by = ?, approved_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.TransferApproved, approvedBy, id, model.TransferPending,
	)
	if err != nil {
		return false, fmt.Errorf("approving stock transfer: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking approved stock transfer: %w", err)
	}
	return n == 1, nil
}
