// Package subscription owns the single active task subscription of a caller
// context (a CLI invocation, an SDK client...).
package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/stream"
)

// ManagerConfig is the configuration of the subscription manager.
type ManagerConfig struct {
	Subscriber stream.Subscriber
	Logger     log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Subscriber == nil {
		return fmt.Errorf("subscriber is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "subscription.Manager"})

	return nil
}

// Manager holds at most one active subscription. Starting a new one cancels
// the previous one first. It never retries.
type Manager struct {
	subscriber stream.Subscriber
	logger     log.Logger

	mu     sync.Mutex
	active *stream.Handle
}

// NewManager returns a new subscription manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		subscriber: cfg.Subscriber,
		logger:     cfg.Logger,
	}, nil
}

// StartFor cancels the active subscription, if any, and subscribes to the task.
// When the new subscription reaches a terminal state it stops being the active one.
// A callback of a replaced subscription that was already in flight when it was
// cancelled is dropped, cb only sees outcomes of the active subscription.
func (m *Manager) StartFor(ctx context.Context, taskID string, cb stream.Callbacks) *stream.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelActive()

	// The callbacks may run before Subscribe returns (e.g. open failures),
	// the slot is only cleared if it still holds this subscription.
	var (
		handleMu sync.Mutex
		handle   *stream.Handle
		finished bool
	)
	finish := func() bool {
		handleMu.Lock()
		h := handle
		finished = true
		handleMu.Unlock()
		if h == nil {
			return true
		}
		return m.clear(h)
	}

	wrapped := stream.Callbacks{
		OnProcessed: func(r model.Result) {
			if !finish() {
				return
			}
			if cb.OnProcessed != nil {
				cb.OnProcessed(r)
			}
		},
		OnRejected: func() {
			if !finish() {
				return
			}
			if cb.OnRejected != nil {
				cb.OnRejected()
			}
		},
		OnError: func(err error) {
			if !finish() {
				return
			}
			if cb.OnError != nil {
				cb.OnError(err)
			}
		},
	}

	h := m.subscriber.Subscribe(ctx, taskID, wrapped)

	handleMu.Lock()
	handle = h
	done := finished
	handleMu.Unlock()

	if done {
		m.logger.WithValues(log.Kv{"task-id": taskID}).Debugf("Subscription finished on start")
		return h
	}

	m.active = h
	m.logger.WithValues(log.Kv{"task-id": taskID, "subscription-id": h.ID()}).Debugf("Subscription active")

	return h
}

// CancelActive cancels the active subscription. It's safe to call it when
// there is no active subscription.
func (m *Manager) CancelActive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelActive()
}

// Cancel cancels a subscription started by the manager. The slot is only
// cleared when it still holds that subscription.
func (m *Manager) Cancel(h *stream.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == h {
		m.cancelActive()
		return
	}
	h.Cancel()
}

// Active returns the active subscription, nil if there is none.
func (m *Manager) Active() *stream.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) cancelActive() {
	if m.active == nil {
		return
	}

	m.logger.WithValues(log.Kv{"task-id": m.active.TaskID(), "subscription-id": m.active.ID()}).Debugf("Cancelling subscription")
	m.active.Cancel()
	m.active = nil
}

// clear empties the slot if it holds h, false means h was replaced.
func (m *Manager) clear(h *stream.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != h {
		return false
	}
	m.active = nil
	return true
}
