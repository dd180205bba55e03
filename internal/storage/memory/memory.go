package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	entries map[string]model.JournalEntry
	mu      sync.RWMutex
	logger  log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		entries: make(map[string]model.JournalEntry),
		logger:  cfg.Logger,
	}, nil
}

// CreateEntry records a submitted task.
func (r *Repository) CreateEntry(ctx context.Context, e model.JournalEntry) error {
	if e.TaskID == "" {
		return fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.TaskID]; ok {
		return fmt.Errorf("journal entry %s: %w", e.TaskID, model.ErrAlreadyExists)
	}

	r.entries[e.TaskID] = copyEntry(e)
	r.logger.Debugf("Created journal entry: %s", e.TaskID)

	return nil
}

// ResolveEntry sets how a task ended.
func (r *Repository) ResolveEntry(ctx context.Context, taskID string, status model.TaskStatus, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[taskID]
	if !ok {
		return fmt.Errorf("journal entry %s: %w", taskID, model.ErrNotFound)
	}

	at = at.UTC()
	e.Status = status
	e.Error = errMsg
	e.ResolvedAt = &at
	r.entries[taskID] = e

	return nil
}

// GetEntry retrieves the entry of a task.
func (r *Repository) GetEntry(ctx context.Context, taskID string) (*model.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[taskID]
	if !ok {
		return nil, fmt.Errorf("journal entry %s: %w", taskID, model.ErrNotFound)
	}

	// Return a copy.
	entryCopy := copyEntry(e)
	return &entryCopy, nil
}

// ListEntries returns the most recent entries first.
func (r *Repository) ListEntries(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]model.JournalEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, copyEntry(e))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].TaskID > entries[j].TaskID
		}
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// DeleteEntriesBefore removes the entries submitted before the time.
func (r *Repository) DeleteEntriesBefore(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, e := range r.entries {
		if e.SubmittedAt.Before(before) {
			delete(r.entries, id)
			deleted++
		}
	}

	r.logger.Debugf("Deleted %d journal entries", deleted)
	return deleted, nil
}

func copyEntry(e model.JournalEntry) model.JournalEntry {
	if e.ResolvedAt != nil {
		t := *e.ResolvedAt
		e.ResolvedAt = &t
	}
	return e
}
