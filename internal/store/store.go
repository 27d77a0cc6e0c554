// Package store persists catalog, site, job, transfer and user records.
//
// Functions take a Querier so they can run either directly against the
// database or inside a stock unit of work.
package store

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dialect builds the filtered list queries.
var dialect = goqu.Dialect("sqlite3")
