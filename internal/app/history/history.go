package history

import (
	"context"
	"fmt"
	"time"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
	Now        func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	return nil
}

// Service lists and prunes the local task journal.
type Service struct {
	repo   storage.Repository
	logger log.Logger
	now    func() time.Time
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    cfg.Now,
	}, nil
}

// Request represents the history request parameters.
type Request struct {
	// Limit is the max number of entries returned, 0 returns all of them.
	Limit int
	// StatusFilter is an optional filter to only show tasks with this status.
	StatusFilter *model.TaskStatus
}

// Run lists the journal entries, most recent first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.JournalEntry, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}
	s.logger.Debugf("listing journal with filter: %v", req.StatusFilter)

	// The filter is applied before the limit.
	limit := req.Limit
	if req.StatusFilter != nil {
		limit = 0
	}

	entries, err := s.repo.ListEntries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list journal entries: %w", err)
	}

	if req.StatusFilter != nil {
		filtered := make([]model.JournalEntry, 0, len(entries))
		for _, e := range entries {
			if e.Status == *req.StatusFilter {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
		if req.Limit > 0 && len(entries) > req.Limit {
			entries = entries[:req.Limit]
		}
	}

	s.logger.Debugf("found %d journal entries", len(entries))
	return entries, nil
}

// PruneRequest represents the prune request parameters.
type PruneRequest struct {
	// OlderThan removes the entries submitted before now minus this duration.
	OlderThan time.Duration
}

// Prune removes old journal entries and returns how many were removed.
func (s *Service) Prune(ctx context.Context, req PruneRequest) (int, error) {
	if req.OlderThan < 0 {
		return 0, fmt.Errorf("prune age can't be negative: %w", model.ErrNotValid)
	}

	before := s.now().UTC().Add(-req.OlderThan)
	n, err := s.repo.DeleteEntriesBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("could not prune journal: %w", err)
	}

	s.logger.Infof("Pruned %d journal entries submitted before %s", n, before.Format(time.RFC3339))
	return n, nil
}
