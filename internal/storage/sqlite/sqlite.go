package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewJournalMigrator(migrations.JournalMigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateEntry records a submitted task.
func (r *Repository) CreateEntry(ctx context.Context, e model.JournalEntry) error {
	if e.TaskID == "" {
		return fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO task_journal (
			task_id, kind, request, status, error,
			submitted_at, resolved_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		e.TaskID,
		e.Kind,
		e.Request,
		e.Status,
		e.Error,
		e.SubmittedAt.UnixMilli(),
		unixMilliOrNil(e.ResolvedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: task_journal.") {
			return fmt.Errorf("journal entry %s: %w", e.TaskID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert journal entry: %w", err)
	}

	r.logger.Debugf("Created journal entry: %s", e.TaskID)
	return nil
}

// ResolveEntry sets how a task ended.
func (r *Repository) ResolveEntry(ctx context.Context, taskID string, status model.TaskStatus, errMsg string, at time.Time) error {
	query := `
		UPDATE task_journal
		SET
			status = ?,
			error = ?,
			resolved_at = ?
		WHERE task_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, errMsg, at.UnixMilli(), taskID)
	if err != nil {
		return fmt.Errorf("could not update journal entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("journal entry %s: %w", taskID, model.ErrNotFound)
	}

	r.logger.Debugf("Resolved journal entry %s as %s", taskID, status)
	return nil
}

// GetEntry retrieves the entry of a task.
func (r *Repository) GetEntry(ctx context.Context, taskID string) (*model.JournalEntry, error) {
	query := `
		SELECT
			task_id, kind, request, status, error,
			submitted_at, resolved_at
		FROM task_journal
		WHERE task_id = ?
	`

	e, err := scanRow(r.db.QueryRowContext(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("journal entry %s: %w", taskID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query journal entry: %w", err)
	}

	return &e, nil
}

// ListEntries returns the most recent entries first.
func (r *Repository) ListEntries(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	query := `
		SELECT
			task_id, kind, request, status, error,
			submitted_at, resolved_at
		FROM task_journal
		ORDER BY submitted_at DESC, task_id DESC
		LIMIT ?
	`

	// SQLite treats a negative limit as no limit.
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query journal entries: %w", err)
	}
	defer rows.Close()

	entries := []model.JournalEntry{}
	for rows.Next() {
		e, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// DeleteEntriesBefore removes the entries submitted before the time.
func (r *Repository) DeleteEntriesBefore(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM task_journal WHERE submitted_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("could not delete journal entries: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected: %w", err)
	}

	r.logger.Debugf("Deleted %d journal entries", rows)
	return int(rows), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (model.JournalEntry, error) {
	var e model.JournalEntry
	var submittedAt int64
	var resolvedAt sql.NullInt64

	err := s.Scan(
		&e.TaskID,
		&e.Kind,
		&e.Request,
		&e.Status,
		&e.Error,
		&submittedAt,
		&resolvedAt,
	)
	if err != nil {
		return model.JournalEntry{}, err
	}

	e.SubmittedAt = time.UnixMilli(submittedAt).UTC()
	if resolvedAt.Valid {
		t := time.UnixMilli(resolvedAt.Int64).UTC()
		e.ResolvedAt = &t
	}

	return e, nil
}

func unixMilliOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.UnixMilli()
	return &u
}
