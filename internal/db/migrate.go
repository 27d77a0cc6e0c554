package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies all pending schema migrations. Running it against an
// up-to-date database is a no-op.
func Migrate(db *sql.DB) error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("preparing migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	// m is not closed: closing the sqlite driver closes db as well.
	m.Log = migrationLogger{}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("running migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	slog.Info("database migrated", "version", version)
	return nil
}

// migrationLogger forwards golang-migrate output to slog.
type migrationLogger struct{}

func (migrationLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf("migrate: "+format, v...))
}

func (migrationLogger) Verbose() bool {
	return false
}
