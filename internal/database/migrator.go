package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// migrationsTable is where golang-migrate records the applied version.
const migrationsTable = "schema_migrations"

// Migrator applies SQL migrations from a directory against the shared
// pgx pool. It borrows a database/sql handle from the pool for the
// lifetime of the migrator; Close returns it.
type Migrator struct {
	m      *migrate.Migrate
	handle *sql.DB
	logger zerolog.Logger
}

// NewMigrator builds a Migrator reading migration files from dir.
func NewMigrator(db *DB, dir string, logger zerolog.Logger) (*Migrator, error) {
	if dir == "" {
		return nil, fmt.Errorf("migrations directory is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations directory %q: %w", dir, err)
	}
	if db == nil || db.pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}

	handle := stdlib.OpenDBFromPool(db.pool)

	driver, err := postgres.WithInstance(handle, &postgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	return &Migrator{m: m, handle: handle, logger: logger}, nil
}

// Up applies every pending migration. An already up-to-date schema is
// not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info().Msg("schema already up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	mg.logVersion("migrations applied")
	return nil
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	if err := mg.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info().Msg("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("roll back migrations: %w", err)
	}
	mg.logger.Info().Msg("all migrations rolled back")
	return nil
}

// Steps moves the schema n migrations forward, or backward when n is
// negative. Running past the newest migration is not an error.
func (mg *Migrator) Steps(n int) error {
	if err := mg.m.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, os.ErrNotExist) {
			mg.logger.Info().Int("steps", n).Msg("no migrations in that direction")
			return nil
		}
		return fmt.Errorf("step migrations: %w", err)
	}
	mg.logVersion("migration steps applied")
	return nil
}

// Version reports the current schema version and whether a previous
// run left it dirty.
func (mg *Migrator) Version() (uint, bool, error) {
	return mg.m.Version()
}

// Force overwrites the recorded schema version without running any
// migration. Used to recover a dirty schema after a failed run.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn().Int("version", version).Msg("forcing schema version")
	return mg.m.Force(version)
}

// Close releases the migration source and returns the borrowed
// database/sql handle to the pool.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if err := mg.handle.Close(); err != nil && dbErr == nil {
		dbErr = err
	}
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", errors.Join(sourceErr, dbErr))
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database handle: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) logVersion(msg string) {
	v, dirty, err := mg.m.Version()
	if err != nil {
		mg.logger.Info().Msg(msg)
		return
	}
	mg.logger.Info().Uint("version", v).Bool("dirty", dirty).Msg(msg)
}
