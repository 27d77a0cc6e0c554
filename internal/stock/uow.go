package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrAborted is returned by Commit when an operation in the unit of work
// failed. The unit is rolled back.
var ErrAborted = errors.New("unit of work aborted")

// UnitOfWork is an open database transaction that several stock operations
// can share. Operations given a nil *UnitOfWork open and commit their own.
//
// A UnitOfWork satisfies store.Querier, so catalog and job reads can run in
// the same transaction.
type UnitOfWork struct {
	tx      *sql.Tx
	aborted bool
	done    bool
}

// Begin opens a unit of work. The database is opened with immediate
// transactions, so this takes the write lock and blocks concurrent writers
// until Commit or Rollback.
func Begin(ctx context.Context, db *sql.DB) (*UnitOfWork, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning unit of work: %w", err)
	}
	return &UnitOfWork{tx: tx}, nil
}

// Commit commits the unit of work, or rolls it back and returns ErrAborted
// when an operation inside it failed.
func (u *UnitOfWork) Commit() error {
	if u.done {
		return errors.New("unit of work already finished")
	}
	u.done = true
	if u.aborted {
		u.tx.Rollback()
		return ErrAborted
	}
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("committing unit of work: %w", err)
	}
	return nil
}

// Rollback discards the unit of work. It is a no-op after Commit, so it can
// be deferred.
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back unit of work: %w", err)
	}
	return nil
}

// Aborted reports whether an operation in the unit of work failed.
func (u *UnitOfWork) Aborted() bool { return u.aborted }

func (u *UnitOfWork) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return u.tx.ExecContext(ctx, query, args...)
}

func (u *UnitOfWork) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return u.tx.QueryContext(ctx, query, args...)
}

func (u *UnitOfWork) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return u.tx.QueryRowContext(ctx, query, args...)
}

// within runs fn in uow, or in a fresh unit of work committed on success when
// uow is nil. A failure inside a joined unit aborts it.
func within(ctx context.Context, db *sql.DB, uow *UnitOfWork, fn func(*UnitOfWork) error) error {
	if uow != nil {
		if uow.done {
			return errors.New("unit of work already finished")
		}
		if uow.aborted {
			return ErrAborted
		}
		if err := fn(uow); err != nil {
			uow.aborted = true
			return err
		}
		return nil
	}

	own, err := Begin(ctx, db)
	if err != nil {
		return err
	}
	defer own.Rollback()

	if err := fn(own); err != nil {
		return err
	}
	return own.Commit()
}
