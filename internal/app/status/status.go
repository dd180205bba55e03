package status

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/submit"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	StatusGetter submit.StatusGetter
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.StatusGetter == nil {
		return fmt.Errorf("status getter is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service retrieves the point in time status of a task.
type Service struct {
	getter submit.StatusGetter
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		getter: cfg.StatusGetter,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	// TaskID is the task correlation ID returned on submission.
	TaskID string
}

// Run retrieves the status of a task. Tasks are only retained by the backend
// for a while, expired tasks are not found.
func (s *Service) Run(ctx context.Context, req Request) (*model.TaskSnapshot, error) {
	taskID := strings.TrimSpace(req.TaskID)
	if taskID == "" {
		return nil, fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("getting status for task: %s", taskID)

	snap, err := s.getter.TaskStatus(ctx, taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("task not found or expired: %s: %w", taskID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get task status: %w", err)
	}

	s.logger.Debugf("task %s is %s", taskID, snap.Status)

	return snap, nil
}
