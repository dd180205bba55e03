// Package migrations embeds and applies the task journal schema.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/g3a/htpclient/internal/log"
)

//go:embed sql/*.sql
var journalSchema embed.FS

// JournalMigratorConfig is the configuration of the journal migrator.
type JournalMigratorConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *JournalMigratorConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "migrations.JournalMigrator"})
	return nil
}

// JournalMigrator keeps the task journal tables at the schema version embedded
// in the binary.
type JournalMigrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewJournalMigrator returns a new journal migrator.
func NewJournalMigrator(cfg JournalMigratorConfig) (*JournalMigrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &JournalMigrator{
		db:     cfg.DB,
		logger: cfg.Logger,
	}, nil
}

// Up brings the journal to the latest schema. An up to date journal is not an error.
func (m *JournalMigrator) Up(ctx context.Context) error {
	return m.with(func(inst *migrate.Migrate) error {
		if err := inst.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not apply journal schema: %w", err)
		}

		v, _, err := inst.Version()
		if err != nil {
			return fmt.Errorf("could not read journal schema version: %w", err)
		}
		m.logger.WithValues(log.Kv{"schema-version": v}).Debugf("Journal schema ready")
		return nil
	})
}

// Drop removes every journal table, recorded tasks are lost.
func (m *JournalMigrator) Drop(ctx context.Context) error {
	return m.with(func(inst *migrate.Migrate) error {
		if err := inst.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not drop journal schema: %w", err)
		}
		m.logger.Debugf("Journal schema dropped")
		return nil
	})
}

// Version returns the journal schema version, 0 when the journal has no schema yet.
func (m *JournalMigrator) Version(ctx context.Context) (uint, error) {
	var version uint
	err := m.with(func(inst *migrate.Migrate) error {
		v, dirty, err := inst.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not read journal schema version: %w", err)
		}
		if dirty {
			return fmt.Errorf("journal schema version %d is dirty", v)
		}
		version = v
		return nil
	})

	return version, err
}

// with runs fn on a migrate instance reading the embedded journal schema.
func (m *JournalMigrator) with(fn func(inst *migrate.Migrate) error) error {
	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create journal db driver: %w", err)
	}

	src, err := iofs.New(journalSchema, "sql")
	if err != nil {
		return fmt.Errorf("could not load embedded journal schema: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.Warningf("Could not close journal schema source: %s", err)
		}
	}()

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not prepare journal migration: %w", err)
	}

	return fn(inst)
}
