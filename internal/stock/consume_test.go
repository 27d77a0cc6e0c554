package stock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

func TestConsumeStockForJob(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	q := f.part("Fuse")
	siteID := f.site("North course")
	site := model.AtSite(siteID)
	f.receive(p, site, 5)
	f.receive(q, site, 2)

	job := f.job(model.JobTypeMaintenance, siteID)
	res, err := f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{
		JobID:  job.ID,
		Parts:  []model.JobPart{{PartID: p, Quantity: 3}, {PartID: q, Quantity: 1}},
		Site:   site,
		UserID: &f.user,
	})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)

	for _, tx := range res.Transactions {
		assert.Equal(t, model.MovementOut, tx.Kind)
		assert.Equal(t, model.RefJob, tx.RefType)
		require.NotNil(t, tx.RefID)
		assert.Equal(t, job.ID, *tx.RefID)
		assert.Equal(t, site, tx.Location)
	}
	assert.Equal(t, 2, f.qty(p, site))
	assert.Equal(t, 1, f.qty(q, site))

	logs, err := store.ListUsageLogs(f.ctx, f.db, store.UsageFilter{JobID: job.ID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Brake pad", logs[0].PartName)
	assert.Equal(t, 3, logs[0].Quantity)
	assert.Equal(t, "North course", logs[0].SiteName)
	assert.Equal(t, "GC-12", logs[0].Vehicle)
	assert.Equal(t, "somchai", logs[0].UserName)
	assert.Equal(t, model.JobTypeMaintenance, logs[0].JobType)
}

// Site has 3 of P; a job asks for 5 of P and 1 of Q.
func TestConsumeStockForJob_InsufficientIsAtomic(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	q := f.part("Fuse")
	r := f.part("Wiper")
	siteID := f.site("North course")
	site := model.AtSite(siteID)
	f.receive(p, site, 3)
	f.receive(q, site, 4)
	before := f.ledgerCount()

	job := f.job(model.JobTypeMaintenance, siteID)
	_, err := f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{
		JobID:  job.ID,
		Parts:  []model.JobPart{{PartID: q, Quantity: 1}, {PartID: p, Quantity: 5}, {PartID: r, Quantity: 2}},
		Site:   site,
		UserID: &f.user,
	})
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Len(t, short.Shortages, 2, "every short part is reported")
	assert.Equal(t, Shortage{PartID: p, PartName: "Brake pad", Requested: 5, Available: 3}, short.Shortages[0])
	assert.Equal(t, Shortage{PartID: r, PartName: "Wiper", Requested: 2, Available: 0}, short.Shortages[1])

	assert.Equal(t, 3, f.qty(p, site))
	assert.Equal(t, 4, f.qty(q, site))
	assert.False(t, f.hasRecord(r, site))
	assert.Equal(t, before, f.ledgerCount())

	logs, err := store.ListUsageLogs(f.ctx, f.db, store.UsageFilter{JobID: job.ID})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestConsumeStockForJob_MergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	siteID := f.site("North course")
	site := model.AtSite(siteID)
	f.receive(p, site, 5)

	job := f.job(model.JobTypeMaintenance, siteID)
	_, err := f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{
		JobID: job.ID,
		Parts: []model.JobPart{{PartID: p, Quantity: 3}, {PartID: p, Quantity: 3}},
		Site:  site,
	})
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 6, short.Shortages[0].Requested)
	assert.Equal(t, 5, f.qty(p, site))
}

func TestConsumeStockForJob_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	siteID := f.site("North course")
	job := f.job(model.JobTypeMaintenance, siteID)

	_, err := f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{JobID: job.ID, Parts: []model.JobPart{{PartID: p, Quantity: 1}}, Site: model.Central()})
	assert.ErrorIs(t, err, ErrInvalidRequest, "central is not a site")

	_, err = f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{JobID: job.ID, Site: model.AtSite(siteID)})
	assert.ErrorIs(t, err, ErrInvalidRequest, "no parts")

	_, err = f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{JobID: 999, Parts: []model.JobPart{{PartID: p, Quantity: 1}}, Site: model.AtSite(siteID)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeStockForJob_ConcurrentSamePair(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	siteID := f.site("North course")
	site := model.AtSite(siteID)
	f.receive(p, site, 5)

	jobs := []*model.Job{f.job(model.JobTypeMaintenance, siteID), f.job(model.JobTypeMaintenance, siteID)}

	var wg sync.WaitGroup
	errs := make([]error, len(jobs))
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, jobID int64) {
			defer wg.Done()
			_, errs[i] = f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{
				JobID: jobID,
				Parts: []model.JobPart{{PartID: p, Quantity: 3}},
				Site:  site,
			})
		}(i, j.ID)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 1, ok, "exactly one consumption succeeds")
	assert.Equal(t, 2, f.qty(p, site))
}

func TestCheckSiteStock(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	q := f.part("Fuse")
	site := model.AtSite(f.site("North course"))
	f.receive(p, site, 2)

	checks, err := f.svc.CheckSiteStock(f.ctx, nil, []model.JobPart{{PartID: p, Quantity: 2}, {PartID: q, Quantity: 1}}, site)
	require.NoError(t, err)
	assert.Equal(t, []StockCheck{
		{PartID: p, PartName: "Brake pad", Requested: 2, Available: 2, Sufficient: true},
		{PartID: q, PartName: "Fuse", Requested: 1, Available: 0, Sufficient: false},
	}, checks)

	_, err = f.svc.CheckSiteStock(f.ctx, nil, []model.JobPart{{PartID: 999, Quantity: 1}}, site)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, f.ledgerCount(), "checks write nothing")
}

func TestConsumeStockForJob_RejectsPartRequest(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	siteID := f.site("North course")
	site := model.AtSite(siteID)
	f.receive(p, site, 5)

	job := f.job(model.JobTypePartRequest, siteID, model.JobPart{PartID: p, Quantity: 2})
	for i := 0; i < 2; i++ {
		_, err := f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{
			JobID:  job.ID,
			Parts:  job.Parts,
			Site:   site,
			UserID: &f.user,
		})
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assert.Equal(t, 5, f.qty(p, site))
}

func TestConsumeStockForJob_DeletedSite(t *testing.T) {
	f := newFixture(t)
	p := f.part("Brake pad")
	siteID := f.site("North course")
	job := f.job(model.JobTypeMaintenance, siteID)
	require.NoError(t, store.DeleteSite(f.ctx, f.db, siteID))

	_, err := f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{
		JobID: job.ID,
		Parts: []model.JobPart{{PartID: p, Quantity: 1}},
		Site:  model.AtSite(siteID),
	})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, f.ledgerCount())
}
