package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations
var migrationsFS embed.FS

// Schema names one service's migration set. Each set keeps its own version
// table so both services can share a database.
type Schema string

const (
	SchemaAuth Schema = "auth"
	SchemaTask Schema = "task"
)

func (s Schema) dir() string {
	return "migrations/" + string(s)
}

func (s Schema) versionTable() string {
	return string(s) + "_schema_migrations"
}

// Migrate applies every pending migration for the schema.
func Migrate(databaseURL string, schema Schema) error {
	m, closeFn, err := newMigrator(databaseURL, schema)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s migrations: %w", schema, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read %s schema version: %w", schema, err)
	}

	slog.Info("database schema ensured", "schema", string(schema), "version", version, "dirty", dirty)
	return nil
}

func newMigrator(databaseURL string, schema Schema) (*migrate.Migrate, func(), error) {
	source, err := iofs.New(migrationsFS, schema.dir())
	if err != nil {
		return nil, nil, fmt.Errorf("create migration source: %w", err)
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: schema.versionTable()})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}

	closeFn := func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}

	return m, closeFn, nil
}
