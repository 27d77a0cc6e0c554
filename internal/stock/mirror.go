package stock

import (
	"context"
	"fmt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// The usage log is a flat copy of consumption entries for reports that
// predate the ledger. It is derived data: stock_transactions is
// authoritative. Drop writeUsageLogs once the usage report reads the ledger.

type usageContext struct {
	jobID    int64
	jobType  string
	vehicle  string
	siteName string
	userName string
}

func loadUsageContext(ctx context.Context, q store.Querier, job *model.Job, site model.Location, userID *int64) (usageContext, error) {
	uc := usageContext{jobID: job.ID, jobType: job.Type, vehicle: job.Vehicle}

	if id, ok := site.SiteID(); ok {
		s, err := store.GetSite(ctx, q, id)
		if err != nil {
			return uc, err
		}
		if s == nil {
			return uc, notFound("site %d", id)
		}
		uc.siteName = s.Name
	}
	if userID != nil {
		name, err := store.GetUserName(ctx, q, *userID)
		if err != nil {
			return uc, err
		}
		uc.userName = name
	}
	return uc, nil
}

func writeUsageLogs(ctx context.Context, q store.Querier, uc usageContext, checks []StockCheck) error {
	for _, c := range checks {
		_, err := q.ExecContext(ctx,
			`INSERT INTO usage_logs (job_id, part_name, quantity, site_name, vehicle, user_name, job_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uc.jobID, c.PartName, c.Requested, uc.siteName, nullString(uc.vehicle), nullString(uc.userName), uc.jobType,
		)
		if err != nil {
			return fmt.Errorf("writing usage log: %w", err)
		}
	}
	return nil
}
