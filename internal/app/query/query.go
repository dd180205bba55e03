package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/storage"
	"github.com/g3a/htpclient/internal/stream"
	"github.com/g3a/htpclient/internal/submit"
)

var (
	// ErrTimeout is returned when the caller timeout expires before the task is resolved.
	ErrTimeout = errors.New("timed out waiting for the task")
	// ErrCancelled is returned when the subscription is cancelled by someone else
	// (a newer subscription, the client being closed...) before the task is resolved.
	ErrCancelled = errors.New("subscription cancelled")
)

// SubscriptionManager owns the active task subscription.
type SubscriptionManager interface {
	StartFor(ctx context.Context, taskID string, cb stream.Callbacks) *stream.Handle
	Cancel(h *stream.Handle)
}

// ServiceConfig is the configuration for the query service.
type ServiceConfig struct {
	Submitter submit.Submitter
	Manager   SubscriptionManager
	// Journal is optional, when set every submitted task and its outcome are recorded.
	Journal storage.Repository
	Logger  log.Logger
	Now     func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Submitter == nil {
		return fmt.Errorf("submitter is required")
	}
	if c.Manager == nil {
		return fmt.Errorf("subscription manager is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return nil
}

// Service submits deferred reads and waits for their outcome.
type Service struct {
	submitter submit.Submitter
	manager   SubscriptionManager
	journal   storage.Repository
	logger    log.Logger
	now       func() time.Time
}

// NewService creates a new query service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		submitter: cfg.Submitter,
		manager:   cfg.Manager,
		journal:   cfg.Journal,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}, nil
}

// Request represents the query request parameters.
type Request struct {
	// Operation is the deferred read to submit, ignored when TaskID is set.
	Operation model.Operation
	// TaskID waits for an already submitted task instead of submitting a new one.
	TaskID string
	// Timeout is the max time waiting for the outcome, 0 waits until the backend resolves the task.
	Timeout time.Duration
}

// Response is the outcome of a resolved task. Result is only set on processed tasks.
type Response struct {
	TaskID string
	Status model.TaskStatus
	Result *model.Result
}

type outcome struct {
	status model.TaskStatus
	result *model.Result
	err    error
}

// Run submits the operation (unless a task ID is given), subscribes to its task
// and blocks until the task is resolved. A rejected task is not an error.
// Whatever the result, no subscription is left open when it returns.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	taskID := req.TaskID
	if taskID == "" {
		sub, err := s.submitter.Submit(ctx, req.Operation)
		if err != nil {
			return nil, fmt.Errorf("could not submit %s: %w", req.Operation.Kind, err)
		}
		taskID = sub.TaskID
	}

	logger := s.logger.WithValues(log.Kv{"task-id": taskID})
	if req.TaskID == "" {
		s.record(ctx, logger, req.Operation, taskID)
	}
	logger.Debugf("Waiting for task outcome")

	outcomes := make(chan outcome, 1)
	send := func(o outcome) {
		select {
		case outcomes <- o:
		default:
		}
	}
	h := s.manager.StartFor(ctx, taskID, stream.Callbacks{
		OnProcessed: func(r model.Result) { send(outcome{status: model.TaskStatusProcessed, result: &r}) },
		OnRejected:  func() { send(outcome{status: model.TaskStatusRejected}) },
		OnError:     func(err error) { send(outcome{err: err}) },
	})

	var timeout <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(req.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case o := <-outcomes:
		return s.outcome(ctx, logger, taskID, o)

	case <-h.Done():
		// Terminal callbacks run before the channel is released.
		select {
		case o := <-outcomes:
			return s.outcome(ctx, logger, taskID, o)
		default:
		}
		// The subscription is bound to ctx.
		if ctx.Err() != nil {
			return s.cancelled(ctx, logger, h, taskID)
		}
		s.manager.Cancel(h)
		logger.Debugf("Subscription cancelled before the task was resolved")
		s.resolve(ctx, logger, taskID, model.TaskStatusAccepted, ErrCancelled)
		return nil, fmt.Errorf("task %s: %w", taskID, ErrCancelled)

	case <-timeout:
		s.manager.Cancel(h)
		err := fmt.Errorf("%w after %s", ErrTimeout, req.Timeout)
		s.resolve(ctx, logger, taskID, model.TaskStatusAccepted, err)
		return nil, fmt.Errorf("task %s: %w", taskID, err)

	case <-ctx.Done():
		return s.cancelled(ctx, logger, h, taskID)
	}
}

func (s *Service) cancelled(ctx context.Context, logger log.Logger, h *stream.Handle, taskID string) (*Response, error) {
	s.manager.Cancel(h)
	s.resolve(context.WithoutCancel(ctx), logger, taskID, model.TaskStatusAccepted, ctx.Err())
	return nil, fmt.Errorf("task %s: %w", taskID, ctx.Err())
}

func (s *Service) outcome(ctx context.Context, logger log.Logger, taskID string, o outcome) (*Response, error) {
	if o.err != nil {
		s.resolve(ctx, logger, taskID, model.TaskStatusAccepted, o.err)
		return nil, fmt.Errorf("task %s failed: %w", taskID, o.err)
	}

	logger.Debugf("Task resolved as %s", o.status)
	s.resolve(ctx, logger, taskID, o.status, nil)
	return &Response{TaskID: taskID, Status: o.status, Result: o.result}, nil
}

// record journals a submitted task. Journal failures never fail the query.
func (s *Service) record(ctx context.Context, logger log.Logger, op model.Operation, taskID string) {
	if s.journal == nil {
		return
	}

	request := op.Path
	if len(op.Params) > 0 {
		request += "?" + op.Params.Encode()
	}
	err := s.journal.CreateEntry(ctx, model.JournalEntry{
		TaskID:      taskID,
		Kind:        op.Kind,
		Request:     request,
		Status:      model.TaskStatusAccepted,
		SubmittedAt: s.now().UTC(),
	})
	if err != nil {
		logger.Warningf("Could not journal task: %s", err)
	}
}

// resolve journals how the wait for a task ended. Tasks that were not
// journaled by this client (waited by ID) are ignored.
func (s *Service) resolve(ctx context.Context, logger log.Logger, taskID string, status model.TaskStatus, waitErr error) {
	if s.journal == nil {
		return
	}

	errMsg := ""
	if waitErr != nil {
		errMsg = waitErr.Error()
	}
	err := s.journal.ResolveEntry(ctx, taskID, status, errMsg, s.now().UTC())
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		logger.Warningf("Could not journal task outcome: %s", err)
	}
}
