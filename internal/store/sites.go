package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// CreateSite creates a new site.
func CreateSite(ctx context.Context, q Querier, name string) (*model.Site, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO sites (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating site: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting site id: %w", err)
	}

	return GetSite(ctx, q, id)
}

// GetSite returns a site by ID, or nil if it does not exist.
func GetSite(ctx context.Context, q Querier, id int64) (*model.Site, error) {
	s := &model.Site{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM sites WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting site: %w", err)
	}
	return s, nil
}

// ListSites returns all non-deleted sites.
func ListSites(ctx context.Context, q Querier) ([]model.Site, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, created_at, deleted_at
		 FROM sites WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var s model.Site
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// DeleteSite soft-deletes a site. Fails if the site still holds stock.
func DeleteSite(ctx context.Context, q Querier, id int64) error {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory WHERE site_id = ? AND quantity > 0`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking site inventory: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete site: still holds %d parts", count)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE sites SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting site: %w", err)
	}
	return nil
}
