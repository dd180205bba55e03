// Package stream subscribes to the push channel of a single task and turns its
// status events into callbacks.
//
// Every subscription owns exactly one channel, delivers at most one terminal
// callback and releases the channel exactly once, whatever the path that ends
// it (terminal event, channel failure or cancellation).
package stream

import (
	"context"
	"fmt"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
)

// Callbacks are the task outcome handlers. At most one of them is called per
// subscription and they are called from the subscription goroutine. Nil
// callbacks are ignored.
type Callbacks struct {
	OnProcessed func(result model.Result)
	OnRejected  func()
	OnError     func(err error)
}

// Subscriber subscribes to task channels.
type Subscriber interface {
	// Subscribe never fails, open failures are delivered to OnError before returning.
	Subscribe(ctx context.Context, taskID string, cb Callbacks) *Handle
}

// Channel is an open task channel.
type Channel interface {
	// Next blocks until the next message payload is received. Any error
	// means the channel is unusable.
	Next(ctx context.Context) ([]byte, error)
	// Close releases the channel resources.
	Close() error
}

// Opener opens task channels on a transport.
type Opener interface {
	Open(ctx context.Context, taskID string) (Channel, error)
}

// SubscriberConfig is the configuration of the task subscriber.
type SubscriberConfig struct {
	Opener Opener
	Logger log.Logger
}

func (c *SubscriberConfig) defaults() error {
	if c.Opener == nil {
		return fmt.Errorf("opener is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stream.TaskSubscriber"})

	return nil
}

// TaskSubscriber subscribes to tasks on any transport.
type TaskSubscriber struct {
	opener Opener
	logger log.Logger
}

// NewTaskSubscriber returns a new task subscriber.
func NewTaskSubscriber(cfg SubscriberConfig) (*TaskSubscriber, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &TaskSubscriber{
		opener: cfg.Opener,
		logger: cfg.Logger,
	}, nil
}

// Subscribe opens the channel of the task and starts dispatching its events.
// Cancelling ctx is the same as cancelling the handle.
func (s *TaskSubscriber) Subscribe(ctx context.Context, taskID string, cb Callbacks) *Handle {
	h := newHandle(taskID)
	logger := s.logger.WithValues(log.Kv{"task-id": taskID, "subscription-id": h.ID()})

	ctx, cancel := context.WithCancel(ctx)
	ch, err := s.opener.Open(ctx, taskID)
	if err != nil {
		cancel()
		h.release(nil)
		logger.Warningf("Could not open task channel: %s", err)
		h.deliver(func() {
			callError(cb, &model.SubscriptionError{
				Kind:   model.ErrorKindTransportFailure,
				TaskID: taskID,
				Err:    fmt.Errorf("could not open channel: %w", err),
			})
		})
		return h
	}

	h.attach(ch, cancel)
	logger.Debugf("Task channel open")

	go s.read(ctx, h, ch, cb, logger)

	return h
}

// read waits for the single message a task channel delivers.
func (s *TaskSubscriber) read(ctx context.Context, h *Handle, ch Channel, cb Callbacks, logger log.Logger) {
	defer h.Cancel()

	payload, err := ch.Next(ctx)
	if err != nil {
		if ctx.Err() != nil || h.isTerminal() {
			logger.Debugf("Task channel cancelled")
			return
		}
		logger.Warningf("Task channel failed: %s", err)
		h.deliver(func() {
			callError(cb, &model.SubscriptionError{
				Kind:   model.ErrorKindTransportFailure,
				TaskID: h.TaskID(),
				Err:    err,
			})
		})
		return
	}

	dispatch(h, payload, cb)
	logger.Debugf("Task channel reached a terminal state")
}

func callError(cb Callbacks, err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
