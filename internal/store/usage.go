package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// sqliteTime matches the format CURRENT_TIMESTAMP writes, so range filters
// compare like with like.
const sqliteTime = "2006-01-02 15:04:05"

// UsageFilter narrows ListUsageLogs. Zero fields are ignored; To is exclusive.
type UsageFilter struct {
	From  time.Time
	To    time.Time
	JobID int64
}

// ListUsageLogs returns legacy usage log rows, oldest first.
func ListUsageLogs(ctx context.Context, q Querier, f UsageFilter) ([]model.UsageLog, error) {
	ds := dialect.From("usage_logs").
		Select("id", "job_id", "part_name", "quantity", "site_name", "vehicle", "user_name", "job_type", "used_at").
		Order(goqu.C("used_at").Asc(), goqu.C("id").Asc()).
		Prepared(true)

	if !f.From.IsZero() {
		ds = ds.Where(goqu.C("used_at").Gte(f.From.UTC().Format(sqliteTime)))
	}
	if !f.To.IsZero() {
		ds = ds.Where(goqu.C("used_at").Lt(f.To.UTC().Format(sqliteTime)))
	}
	if f.JobID > 0 {
		ds = ds.Where(goqu.Ex{"job_id": f.JobID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building usage log query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing usage logs: %w", err)
	}
	defer rows.Close()

	var logs []model.UsageLog
	for rows.Next() {
		var u model.UsageLog
		var vehicle, userName sql.NullString
		if err := rows.Scan(&u.ID, &u.JobID, &u.PartName, &u.Quantity, &u.SiteName, &vehicle, &userName, &u.JobType, &u.UsedAt); err != nil {
			return nil, fmt.Errorf("scanning usage log: %w", err)
		}
		u.Vehicle = vehicle.String
		u.UserName = userName.String
		logs = append(logs, u)
	}
	return logs, rows.Err()
}
