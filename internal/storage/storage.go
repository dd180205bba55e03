package storage

import (
	"context"
	"time"

	"github.com/g3a/htpclient/internal/model"
)

// Repository is the interface for the task journal persistence.
type Repository interface {
	// CreateEntry records a submitted task.
	CreateEntry(ctx context.Context, e model.JournalEntry) error
	// ResolveEntry sets how a task ended, errMsg is empty unless the client failed waiting for it.
	ResolveEntry(ctx context.Context, taskID string, status model.TaskStatus, errMsg string, at time.Time) error
	GetEntry(ctx context.Context, taskID string) (*model.JournalEntry, error)
	// ListEntries returns the most recent entries first, limit <= 0 returns all of them.
	ListEntries(ctx context.Context, limit int) ([]model.JournalEntry, error)
	// DeleteEntriesBefore removes the entries submitted before the time and returns how many were removed.
	DeleteEntriesBefore(ctx context.Context, before time.Time) (int, error)
}
