package lib

import (
	"context"
	"time"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/stream"
	"github.com/g3a/htpclient/internal/subscription"
)

// QueryOpts configures how long [Client.Query] and [Client.Wait] wait.
//
// Pass nil to use defaults (wait until the backend resolves the task).
type QueryOpts struct {
	// Timeout is the max time waiting for the outcome. When it expires the
	// subscription is cancelled and [ErrTimeout] is returned.
	// Default: 0 (no timeout).
	Timeout time.Duration
}

// Query submits a deferred read and blocks until its task is resolved.
//
// A rejected task is not an error: the outcome status is [TaskStatusRejected]
// and it has no result. Query uses the client subscription slot, any active
// subscription is cancelled.
//
// Returns [ErrCancelled] if the subscription is cancelled by another call on
// the client ([Client.Close], [Client.CancelSubscription], [Client.Subscribe]
// or another query) before the task is resolved.
func (c *Client) Query(ctx context.Context, op Operation, opts *QueryOpts) (*TaskOutcome, error) {
	resp, err := c.query.Run(ctx, query.Request{
		Operation: op.op,
		Timeout:   queryTimeout(opts),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalResponse(resp), nil
}

// Wait blocks until an already submitted task is resolved, like [Client.Query].
func (c *Client) Wait(ctx context.Context, taskID string, opts *QueryOpts) (*TaskOutcome, error) {
	resp, err := c.query.Run(ctx, query.Request{
		TaskID:  taskID,
		Timeout: queryTimeout(opts),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalResponse(resp), nil
}

func queryTimeout(opts *QueryOpts) time.Duration {
	if opts == nil {
		return 0
	}
	return opts.Timeout
}

// Callbacks are the task outcome handlers of [Client.Subscribe]. Exactly one
// of them is called per subscription, none once it has been cancelled. They
// are called from the subscription goroutine. Nil callbacks are ignored.
type Callbacks struct {
	OnProcessed func(result Result)
	OnRejected  func()
	OnError     func(err error)
}

// Subscription is an open task subscription.
type Subscription struct {
	h       *stream.Handle
	manager *subscription.Manager
}

// ID is the subscription ID.
func (s *Subscription) ID() string { return s.h.ID() }

// TaskID is the subscribed task ID.
func (s *Subscription) TaskID() string { return s.h.TaskID() }

// Done is closed once the subscription channel is released, either because
// the task was resolved or the subscription was cancelled.
func (s *Subscription) Done() <-chan struct{} { return s.h.Done() }

// Cancel releases the subscription, it is safe to call multiple times.
func (s *Subscription) Cancel() { s.manager.Cancel(s.h) }

// Subscribe subscribes to the outcome of a task.
//
// The previous active subscription of the client is cancelled before the new
// task channel is opened. Subscribe never blocks waiting for the outcome and
// never fails: open failures are delivered to OnError.
func (c *Client) Subscribe(ctx context.Context, taskID string, cb Callbacks) *Subscription {
	h := c.manager.StartFor(ctx, taskID, stream.Callbacks{
		OnProcessed: func(r model.Result) {
			if cb.OnProcessed != nil {
				cb.OnProcessed(*fromInternalResult(&r))
			}
		},
		OnRejected: cb.OnRejected,
		OnError: func(err error) {
			if cb.OnError != nil {
				cb.OnError(mapError(err))
			}
		},
	})

	return &Subscription{h: h, manager: c.manager}
}

// CancelSubscription cancels the active subscription, if any.
func (c *Client) CancelSubscription() {
	c.manager.CancelActive()
}
