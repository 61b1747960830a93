package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/orgpulse/schema"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// MigrationResult describes the outcome of a migration.
type MigrationResult struct {
	From    uint
	To      uint
	Changed bool
}

// migrationDir maps a backend to its directory under migrations/.
func migrationDir(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "migrations/sqlite", nil
	case schema.MySQLBackend:
		return "migrations/mysql", nil
	case schema.PostgreSQLBackend:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("migrations are not supported for %s backend", backend)
	}
}

// newMigrate builds a migrate instance over an open handle.
// Closing the instance closes the handle as well.
func newMigrate(db *sql.DB, backend schema.DatabaseBackend) (*migrate.Migrate, error) {
	dir, err := migrationDir(backend)
	if err != nil {
		return nil, err
	}

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite migrate driver: %w", err)
		}
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL migrate driver: %w", err)
		}
	case schema.PostgreSQLBackend:
		driver, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL migrate driver: %w", err)
		}
	}

	migrationFS, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "orgpulse", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// migrateTo moves the schema to targetVersion.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
func migrateTo(m *migrate.Migrate, targetVersion int) (MigrationResult, error) {
	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return MigrationResult{}, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return MigrationResult{From: current, To: current}, nil
	}
	if err != nil {
		return MigrationResult{}, fmt.Errorf("failed to migrate from version %d: %w", current, err)
	}

	next, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("failed to read migrated version: %w", err)
	}
	return MigrationResult{From: current, To: next, Changed: true}, nil
}

// migrateOnOpen brings a freshly opened store to the latest schema.
// SQLite migrates on the store's own handle so in-memory databases see the tables;
// server backends migrate over a short-lived handle that is closed afterwards.
func migrateOnOpen(db *sql.DB, backend schema.DatabaseBackend, connStr string) error {
	if backend == schema.SQLiteBackend {
		m, err := newMigrate(db, backend)
		if err != nil {
			return err
		}
		_, err = migrateTo(m, -1)
		return err
	}

	mdb, err := openDB(context.Background(), backend, connStr)
	if err != nil {
		return err
	}
	m, err := newMigrate(mdb, backend)
	if err != nil {
		_ = mdb.Close()
		return err
	}
	defer func() { _, _ = m.Close() }()
	_, err = migrateTo(m, -1)
	return err
}

// Migrate runs schema migrations for the snapshot store to targetVersion.
func Migrate(ctx context.Context, backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	if backend == schema.NoneBackend {
		return MigrationResult{}, fmt.Errorf("migrations are not supported for NoneBackend")
	}

	db, err := openDB(ctx, backend, connStr)
	if err != nil {
		return MigrationResult{}, err
	}
	m, err := newMigrate(db, backend)
	if err != nil {
		_ = db.Close()
		return MigrationResult{}, err
	}
	defer func() { _, _ = m.Close() }()

	return migrateTo(m, targetVersion)
}

// PrintMigrationResult prints a human-readable migration outcome.
func PrintMigrationResult(res MigrationResult, targetVersion int) {
	switch {
	case !res.Changed && targetVersion < 0:
		fmt.Println("No migration needed. Database is already at the latest version.")
	case !res.Changed:
		fmt.Printf("No migration needed. Database is already at version %d\n", targetVersion)
	default:
		fmt.Printf("Successfully migrated from version %d to version %d\n", res.From, res.To)
	}
}
