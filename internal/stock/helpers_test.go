package stock

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/db"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

type fixture struct {
	t    *testing.T
	ctx  context.Context
	db   *sql.DB
	svc  *Service
	user int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()
	u, err := store.CreateUser(ctx, database, "somchai", "hash", model.RoleManager)
	require.NoError(t, err)
	return &fixture{t: t, ctx: ctx, db: database, svc: NewService(database), user: u.ID}
}

func (f *fixture) part(name string) int64 {
	f.t.Helper()
	p, err := store.CreatePart(f.ctx, f.db, name, "")
	require.NoError(f.t, err)
	return p.ID
}

func (f *fixture) site(name string) int64 {
	f.t.Helper()
	s, err := store.CreateSite(f.ctx, f.db, name)
	require.NoError(f.t, err)
	return s.ID
}

func (f *fixture) receive(part int64, loc model.Location, qty int) {
	f.t.Helper()
	_, err := f.svc.ReceiveStock(f.ctx, nil, Receipt{PartID: part, Location: loc, Quantity: qty, UserID: &f.user})
	require.NoError(f.t, err)
}

func (f *fixture) qty(part int64, loc model.Location) int {
	f.t.Helper()
	n, err := f.svc.GetQuantity(f.ctx, nil, part, loc)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) hasRecord(part int64, loc model.Location) bool {
	f.t.Helper()
	_, found, err := readQuantity(f.ctx, f.db, part, loc)
	require.NoError(f.t, err)
	return found
}

func (f *fixture) ledger(filter store.TransactionFilter) []model.StockTransaction {
	f.t.Helper()
	txs, err := store.ListTransactions(f.ctx, f.db, filter)
	require.NoError(f.t, err)
	return txs
}

func (f *fixture) ledgerCount() int {
	f.t.Helper()
	var n int
	require.NoError(f.t, f.db.QueryRow(`SELECT COUNT(*) FROM stock_transactions`).Scan(&n))
	return n
}

func (f *fixture) job(typ string, site int64, parts ...model.JobPart) *model.Job {
	f.t.Helper()
	j, err := store.CreateJob(f.ctx, f.db, store.NewJob{
		Type:      typ,
		SiteID:    &site,
		Vehicle:   "GC-12",
		Parts:     parts,
		CreatedBy: &f.user,
	})
	require.NoError(f.t, err)
	return j
}

func (f *fixture) transfer(site *int64, items ...model.StockTransferItem) *model.StockTransfer {
	f.t.Helper()
	tr, err := store.CreateStockTransfer(f.ctx, f.db, site, items, "", &f.user)
	require.NoError(f.t, err)
	return tr
}
