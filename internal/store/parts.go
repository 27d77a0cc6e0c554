package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// CreatePart adds a part to the catalog.
func CreatePart(ctx context.Context, q Querier, name, unit string) (*model.Part, error) {
	if unit == "" {
		unit = model.DefaultUnit
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO parts (name, unit) VALUES (?, ?)`,
		name, unit,
	)
	if err != nil {
		return nil, fmt.Errorf("creating part: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting part id: %w", err)
	}

	return GetPart(ctx, q, id)
}

// GetPart returns a part by ID, including soft-deleted parts (ledger
// entries may still reference them). Returns nil if it does not exist.
func GetPart(ctx context.Context, q Querier, id int64) (*model.Part, error) {
	p := &model.Part{}
	var legacy sql.NullInt64
	err := q.QueryRowContext(ctx,
		`SELECT id, name, unit, legacy_stock, created_at, deleted_at
		 FROM parts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Unit, &legacy, &p.CreatedAt, &p.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting part: %w", err)
	}
	if legacy.Valid {
		n := int(legacy.Int64)
		p.LegacyStock = &n
	}
	return p, nil
}

// GetPartNames returns the names of the given parts keyed by ID. Unknown IDs
// are absent from the result.
func GetPartNames(ctx context.Context, q Querier, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, params, err := dialect.From("parts").
		Select("id", "name").
		Where(goqu.C("id").In(args...)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building part names query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("getting part names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning part name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// ListParts returns all non-deleted parts.
func ListParts(ctx context.Context, q Querier) ([]model.Part, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, unit, legacy_stock, created_at, deleted_at
		 FROM parts WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing parts: %w", err)
	}
	defer rows.Close()

	var parts []model.Part
	for rows.Next() {
		var p model.Part
		var legacy sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &legacy, &p.CreatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning part: %w", err)
		}
		if legacy.Valid {
			n := int(legacy.Int64)
			p.LegacyStock = &n
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// DeletePart soft-deletes a part.
func DeletePart(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE parts SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting part: %w", err)
	}
	return nil
}
