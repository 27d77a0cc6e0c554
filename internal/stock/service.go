// Package stock keeps per-location part quantities and the ledger that
// explains every change to them.
//
// Quantities live in the inventory table, one row per (part, location).
// Every change writes exactly one row to stock_transactions, which is
// append-only. Operations either apply all of their movements or none.
package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

var (
	// ErrNotFound is returned when a referenced job, transfer or part does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest is returned for malformed input: unspecified
	// locations, non-positive quantities and the like.
	ErrInvalidRequest = errors.New("invalid stock request")
)

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Service runs stock operations against a database.
type Service struct {
	db *sql.DB
}

// NewService creates a Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// DB returns the underlying database.
func (s *Service) DB() *sql.DB { return s.db }

// Begin opens a unit of work that several operations can join.
func (s *Service) Begin(ctx context.Context) (*UnitOfWork, error) {
	return Begin(ctx, s.db)
}

// Result is what a mutating operation wrote. All entries share BatchID.
type Result struct {
	BatchID      string                   `json:"batch_id"`
	Transactions []model.StockTransaction `json:"transactions"`
}

// run executes a mutating operation and collects the ledger entries it wrote.
func (s *Service) run(ctx context.Context, uow *UnitOfWork, userID *int64, fn func(*UnitOfWork, *batch) error) (*Result, error) {
	var res *Result
	err := within(ctx, s.db, uow, func(u *UnitOfWork) error {
		b := &batch{id: uuid.NewString(), userID: userID}
		if err := fn(u, b); err != nil {
			return err
		}
		txs, err := store.ListTransactions(ctx, u, store.TransactionFilter{BatchID: b.id})
		if err != nil {
			return err
		}
		res = &Result{BatchID: b.id, Transactions: txs}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// read runs a read-only operation, directly on the database when uow is nil.
func (s *Service) read(ctx context.Context, uow *UnitOfWork, fn func(store.Querier) error) error {
	if uow == nil {
		return fn(s.db)
	}
	return within(ctx, s.db, uow, func(u *UnitOfWork) error { return fn(u) })
}
