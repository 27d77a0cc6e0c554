// Package approval moves jobs out of PENDING and applies their stock effects
// in the same transaction.
package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/stock"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// Approver approves and rejects jobs.
type Approver struct {
	stock *stock.Service
}

// New creates an Approver.
func New(svc *stock.Service) *Approver {
	return &Approver{stock: svc}
}

// Outcome is an approved job and the stock movements its approval caused.
// Result is nil for a maintenance job without parts.
type Outcome struct {
	Job    *model.Job    `json:"job"`
	Result *stock.Result `json:"result,omitempty"`
}

// Approve approves a pending job. A part request moves its parts from central
// to the job's site; any other job consumes its parts at its site. The status
// change and the stock movements commit together or not at all.
func (a *Approver) Approve(ctx context.Context, jobID int64, userID *int64) (*Outcome, error) {
	uow, err := a.stock.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	job, err := pendingJob(ctx, uow, jobID)
	if err != nil {
		return nil, err
	}

	var res *stock.Result
	switch {
	case job.Type == model.JobTypePartRequest:
		res, err = a.stock.ApprovePartRequest(ctx, uow, job.ID, userID)
	case len(job.Parts) == 0:
	case job.SiteID == nil:
		err = &stock.InvalidStateError{Reason: fmt.Sprintf("job %d has parts but no site", job.ID)}
	default:
		res, err = a.stock.ConsumeStockForJob(ctx, uow, stock.ConsumeRequest{
			JobID:  job.ID,
			Parts:  job.Parts,
			Site:   model.AtSite(*job.SiteID),
			UserID: userID,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := transition(ctx, uow, job.ID, model.JobApproved, userID); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	job, err = store.GetJob(ctx, a.stock.DB(), job.ID)
	if err != nil {
		return nil, err
	}
	entries := 0
	if res != nil {
		entries = len(res.Transactions)
	}
	slog.Info("job approved", "job_id", job.ID, "type", job.Type, "ledger_entries", entries)
	return &Outcome{Job: job, Result: res}, nil
}

// Reject rejects a pending job. Stock is not touched.
func (a *Approver) Reject(ctx context.Context, jobID int64, userID *int64) (*model.Job, error) {
	uow, err := a.stock.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	job, err := pendingJob(ctx, uow, jobID)
	if err != nil {
		return nil, err
	}
	if err := transition(ctx, uow, job.ID, model.JobRejected, userID); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	slog.Info("job rejected", "job_id", job.ID, "type", job.Type)
	return store.GetJob(ctx, a.stock.DB(), job.ID)
}

func pendingJob(ctx context.Context, uow *stock.UnitOfWork, jobID int64) (*model.Job, error) {
	job, err := store.GetJob(ctx, uow, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: job %d", stock.ErrNotFound, jobID)
	}
	if job.Status != model.JobPending {
		return nil, &stock.InvalidStateError{Reason: fmt.Sprintf("job %d is %s, not %s", job.ID, job.Status, model.JobPending)}
	}
	return job, nil
}

func transition(ctx context.Context, uow *stock.UnitOfWork, jobID int64, to string, userID *int64) error {
	ok, err := store.SetJobStatus(ctx, uow, jobID, model.JobPending, to, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &stock.InvalidStateError{Reason: fmt.Sprintf("job %d is no longer pending", jobID)}
	}
	return nil
}
