package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// Handle is an open task subscription. It owns the task channel.
type Handle struct {
	id     string
	taskID string

	mu     sync.Mutex
	ch     Channel
	cancel context.CancelFunc

	terminal  atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

func newHandle(taskID string) *Handle {
	return &Handle{
		id:     ulid.Make().String(),
		taskID: taskID,
		done:   make(chan struct{}),
	}
}

// ID is the unique ID of the subscription.
func (h *Handle) ID() string { return h.id }

// TaskID is the ID of the subscribed task.
func (h *Handle) TaskID() string { return h.taskID }

// Done is closed once the channel has been released.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel releases the channel without calling any callback. It's safe to call
// it multiple times and from any goroutine, including the callbacks.
func (h *Handle) Cancel() {
	h.terminal.Store(true)

	h.mu.Lock()
	ch, cancel := h.ch, h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	h.release(ch)
}

func (h *Handle) attach(ch Channel, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ch = ch
	h.cancel = cancel
}

// deliver runs fn only if no other terminal outcome was delivered before.
func (h *Handle) deliver(fn func()) bool {
	if !h.terminal.CompareAndSwap(false, true) {
		return false
	}
	fn()
	return true
}

func (h *Handle) isTerminal() bool { return h.terminal.Load() }

func (h *Handle) release(ch Channel) {
	h.closeOnce.Do(func() {
		if ch != nil {
			_ = ch.Close()
		}
		close(h.done)
	})
}
