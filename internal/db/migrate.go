package db

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// RunMigrations applies the embedded schema for the connection's dialect.
// The handle is left open; migrate's Close would close it.
func RunMigrations(conn *Connection) error {
	source, err := iofs.New(migrationFiles, "migrations/"+string(conn.Dialect))
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	var driver database.Driver
	switch conn.Dialect {
	case DialectPostgres:
		driver, err = migratepgx.WithInstance(conn.DB, &migratepgx.Config{})
	default:
		driver, err = sqlite3.WithInstance(conn.DB, &sqlite3.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(conn.Dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to execute migrations: %w", err)
	}

	version, _, _ := m.Version()
	log.Printf("[db] schema migrated to version %d", version)
	return nil
}
