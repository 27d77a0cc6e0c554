package stock

import (
	"context"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// ConsumeRequest deducts the parts a maintenance job used from its site.
type ConsumeRequest struct {
	JobID  int64
	Parts  []model.JobPart
	Site   model.Location
	UserID *int64
}

// ConsumeStockForJob deducts every requested part from the site. If any part
// is short, nothing is deducted and the error lists every short part.
func (s *Service) ConsumeStockForJob(ctx context.Context, uow *UnitOfWork, req ConsumeRequest) (*Result, error) {
	if !req.Site.IsSite() || !req.Site.Valid() {
		return nil, invalidRequest("consumption needs a site location, got %s", req.Site)
	}
	return s.run(ctx, uow, req.UserID, func(u *UnitOfWork, b *batch) error {
		job, err := store.GetJob(ctx, u, req.JobID)
		if err != nil {
			return err
		}
		if job == nil {
			return notFound("job %d", req.JobID)
		}
		if job.Type == model.JobTypePartRequest {
			return invalidState("job %d is a part request; approve it to move stock from central", job.ID)
		}
		if err := requireActiveSite(ctx, u, req.Site); err != nil {
			return err
		}

		checks, err := checkStock(ctx, u, req.Parts, req.Site)
		if err != nil {
			return err
		}
		if err := shortages(req.Site, checks); err != nil {
			return err
		}

		jobID := job.ID
		for _, c := range checks {
			err := b.apply(ctx, u, movement{
				partID:   c.PartID,
				location: req.Site,
				delta:    -c.Requested,
				kind:     model.MovementOut,
				refType:  model.RefJob,
				refID:    &jobID,
				docCode:  job.DocumentCode,
			})
			if err != nil {
				return err
			}
		}

		uc, err := loadUsageContext(ctx, u, job, req.Site, req.UserID)
		if err != nil {
			return err
		}
		return writeUsageLogs(ctx, u, uc, checks)
	})
}
