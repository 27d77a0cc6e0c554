// Package events announces committed stock movements to other systems.
package events

import (
	"context"
	"time"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// Event types.
const (
	TypeStockReceived       = "stock.received"
	TypeStockAdjusted       = "stock.adjusted"
	TypeStockConsumed       = "stock.consumed"
	TypeTransferExecuted    = "stock.transfer_executed"
	TypePartRequestApproved = "stock.part_request_approved"
)

// StockEvent is published once per committed operation.
type StockEvent struct {
	Type         string                   `json:"type"`
	BatchID      string                   `json:"batch_id"`
	RefType      string                   `json:"ref_type,omitempty"`
	RefID        *int64                   `json:"ref_id,omitempty"`
	Transactions []model.StockTransaction `json:"transactions"`
	OccurredAt   time.Time                `json:"occurred_at"`
}

// Publisher delivers stock events. Publishing happens after commit, so a
// failure never undoes a movement.
type Publisher interface {
	Publish(ctx context.Context, event *StockEvent) error
	Close() error
}

// NewStockEvent builds an event from an operation's ledger entries.
func NewStockEvent(eventType, batchID string, txs []model.StockTransaction) *StockEvent {
	e := &StockEvent{
		Type:         eventType,
		BatchID:      batchID,
		Transactions: txs,
		OccurredAt:   time.Now().UTC(),
	}
	if len(txs) > 0 {
		e.RefType = txs[0].RefType
		e.RefID = txs[0].RefID
	}
	return e
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, *StockEvent) error { return nil }
func (Nop) Close() error                               { return nil }
