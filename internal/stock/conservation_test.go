package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// Runs a mix of successful and failing operations, then checks that stock is
// neither created nor destroyed and that every balance change is on the ledger.
func TestConservationAndLedgerCompleteness(t *testing.T) {
	f := newFixture(t)
	p := f.part("Battery")
	north := f.site("North course")
	south := f.site("South course")

	f.receive(p, model.Central(), 30)

	for _, step := range []struct {
		site  int64
		qty   int
		short bool
	}{{north, 10, false}, {south, 8, false}, {north, 50, true}} {
		tr := f.transfer(&step.site, model.StockTransferItem{PartID: p, Quantity: step.qty})
		_, err := f.svc.ExecuteStockTransfer(f.ctx, nil, tr.ID, &f.user)
		if step.short {
			require.ErrorIs(t, err, ErrInsufficientStock)
		} else {
			require.NoError(t, err)
		}
	}

	pr := f.job(model.JobTypePartRequest, south, model.JobPart{PartID: p, Quantity: 5})
	_, err := f.svc.ApprovePartRequest(f.ctx, nil, pr.ID, &f.user)
	require.NoError(t, err)

	for _, use := range []struct {
		site  int64
		qty   int
		short bool
	}{{north, 4, false}, {south, 20, true}, {south, 13, false}} {
		j := f.job(model.JobTypeMaintenance, use.site)
		_, err := f.svc.ConsumeStockForJob(f.ctx, nil, ConsumeRequest{
			JobID: j.ID,
			Parts: []model.JobPart{{PartID: p, Quantity: use.qty}},
			Site:  model.AtSite(use.site),
		})
		if use.short {
			require.ErrorIs(t, err, ErrInsufficientStock)
		} else {
			require.NoError(t, err)
		}
	}

	var onHand, consumed, introduced int
	for _, loc := range []model.Location{model.Central(), model.AtSite(north), model.AtSite(south)} {
		n := f.qty(p, loc)
		assert.GreaterOrEqual(t, n, 0)
		onHand += n

		// Each location's ledger chains from zero to its current balance.
		entries := f.ledger(store.TransactionFilter{PartID: p, Location: loc})
		balance := 0
		for _, e := range entries {
			assert.Equal(t, balance, e.PreviousBalance)
			if e.Kind == model.MovementIn {
				assert.Equal(t, e.PreviousBalance+e.Quantity, e.NewBalance)
			} else {
				assert.Equal(t, e.PreviousBalance-e.Quantity, e.NewBalance)
			}
			balance = e.NewBalance
		}
		assert.Equal(t, n, balance, "ledger for %s", loc)
	}

	for _, e := range f.ledger(store.TransactionFilter{PartID: p}) {
		switch e.RefType {
		case model.RefJob:
			consumed += e.Quantity
		case model.RefReceipt:
			introduced += e.Quantity
		}
	}

	assert.Equal(t, 30, introduced)
	assert.Equal(t, 4+13, consumed)
	assert.Equal(t, introduced, onHand+consumed)
	assert.Equal(t, 30-17, onHand)

	// Transfer pairing: each reference has one OUT and one IN of equal size.
	for _, ref := range [][2]string{{model.RefTransfer, model.RefTransferIn}, {model.RefMWR, model.RefMWRIn}} {
		outs := f.ledger(store.TransactionFilter{RefType: ref[0]})
		ins := f.ledger(store.TransactionFilter{RefType: ref[1]})
		require.Equal(t, len(outs), len(ins))
		for i := range outs {
			assert.Equal(t, *outs[i].RefID, *ins[i].RefID)
			assert.Equal(t, outs[i].Quantity, ins[i].Quantity)
			assert.Equal(t, outs[i].BatchID, ins[i].BatchID)
		}
	}
}
