package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh SQLite database in a temporary directory with all
// migrations applied. A file is used instead of :memory: so that every
// connection in the pool sees the same database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
