package stock

import (
	"context"
	"fmt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// ApprovePartRequest moves a part-request job's lines from central to the
// job's site. The ledger entries reference the job and its MWR code.
//
// A job that already has MWR entries is rejected, so approving the same
// request twice cannot move stock twice. The job's own status is left to the
// caller.
func (s *Service) ApprovePartRequest(ctx context.Context, uow *UnitOfWork, jobID int64, userID *int64) (*Result, error) {
	return s.run(ctx, uow, userID, func(u *UnitOfWork, b *batch) error {
		job, err := store.GetJob(ctx, u, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return notFound("job %d", jobID)
		}
		if job.Type != model.JobTypePartRequest {
			return invalidState("job %d is not a part request", job.ID)
		}
		if job.SiteID == nil {
			return invalidState("part request %d has no site", job.ID)
		}
		if len(job.Parts) == 0 {
			return invalidState("part request %d has no parts", job.ID)
		}

		docCode := job.DocumentCode
		if docCode == "" {
			docCode = model.MWRCode(job.ID)
		}

		var done int
		err = u.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM stock_transactions WHERE ref_type = ? AND ref_id = ?`,
			model.RefMWR, job.ID,
		).Scan(&done)
		if err != nil {
			return fmt.Errorf("checking previous part request transfer: %w", err)
		}
		if done > 0 {
			return invalidState("part request %s was already transferred", docCode)
		}

		return moveFromCentral(ctx, u, b, centralMove{
			lines:   job.Parts,
			site:    *job.SiteID,
			refOut:  model.RefMWR,
			refIn:   model.RefMWRIn,
			refID:   job.ID,
			docCode: docCode,
		})
	})
}
