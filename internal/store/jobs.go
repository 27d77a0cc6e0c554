package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// NewJob holds the fields needed to open a job.
type NewJob struct {
	Type        string
	SiteID      *int64
	Vehicle     string
	Description string
	Parts       []model.JobPart
	CreatedBy   *int64
}

// CreateJob opens a pending job with its part lines. Part-request jobs get an
// MWR document code derived from their ID.
func CreateJob(ctx context.Context, db *sql.DB, nj NewJob) (*model.Job, error) {
	if nj.Type != model.JobTypeMaintenance && nj.Type != model.JobTypePartRequest {
		return nil, fmt.Errorf("invalid job type %q", nj.Type)
	}
	for _, p := range nj.Parts {
		if p.PartID <= 0 || p.Quantity <= 0 {
			return nil, fmt.Errorf("job parts need a part and a positive quantity")
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (type, status, site_id, vehicle, description, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nj.Type, model.JobPending, nj.SiteID, nj.Vehicle, nj.Description, nj.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting job id: %w", err)
	}

	if nj.Type == model.JobTypePartRequest {
		_, err := tx.ExecContext(ctx,
			`UPDATE jobs SET document_code = ? WHERE id = ?`, model.MWRCode(id), id,
		)
		if err != nil {
			return nil, fmt.Errorf("assigning document code: %w", err)
		}
	}

	for _, p := range nj.Parts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO job_parts (job_id, part_id, quantity) VALUES (?, ?, ?)`,
			id, p.PartID, p.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("adding job part: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing job: %w", err)
	}
	return GetJob(ctx, db, id)
}

// GetJob returns a job with its parts, or nil if it does not exist.
func GetJob(ctx context.Context, q Querier, id int64) (*model.Job, error) {
	j := &model.Job{}
	var vehicle, description, docCode, siteName sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT j.id, j.type, j.status, j.site_id, j.vehicle, j.description, j.document_code,
		        j.created_by, j.created_at, j.approved_by, j.approved_at, s.name
		 FROM jobs j
		 LEFT JOIN sites s ON s.id = j.site_id
		 WHERE j.id = ?`, id,
	).Scan(&j.ID, &j.Type, &j.Status, &j.SiteID, &vehicle, &description, &docCode,
		&j.CreatedBy, &j.CreatedAt, &j.ApprovedBy, &j.ApprovedAt, &siteName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	j.Vehicle = vehicle.String
	j.Description = description.String
	j.DocumentCode = docCode.String
	j.SiteName = siteName.String

	rows, err := q.QueryContext(ctx,
		`SELECT jp.part_id, jp.quantity, p.name
		 FROM job_parts jp
		 JOIN parts p ON p.id = jp.part_id
		 WHERE jp.job_id = ?
		 ORDER BY jp.id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting job parts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.JobPart
		if err := rows.Scan(&p.PartID, &p.Quantity, &p.PartName); err != nil {
			return nil, fmt.Errorf("scanning job part: %w", err)
		}
		j.Parts = append(j.Parts, p)
	}
	return j, rows.Err()
}

// SetJobStatus moves a job from one status to another. It reports false when
// the job was not in the expected status.
func SetJobStatus(ctx context.Context, q Querier, id int64, from, to string, userID *int64) (bool, error) {
	var result sql.Result
	var err error
	if to == model.JobApproved {
		result, err = q.ExecContext(ctx,
			`UPDATE jobs SET status = ?, approved_by = ?, approved_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status = ?`,
			to, userID, id, from,
		)
	} else {
		result, err = q.ExecContext(ctx,
			`UPDATE jobs SET status = ? WHERE id = ? AND status = ?`,
			to, id, from,
		)
	}
	if err != nil {
		return false, fmt.Errorf("updating job status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking job status update: %w", err)
	}
	return n == 1, nil
}
