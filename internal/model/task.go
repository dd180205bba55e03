package model

import (
	"fmt"
	"time"
)

// TaskStatus represents the state of a deferred task as reported by the backend.
type TaskStatus string

const (
	// TaskStatusAccepted is returned on submission, the task is queued.
	TaskStatusAccepted TaskStatus = "ACCEPTED"
	// TaskStatusPending is how the task status endpoint reports a queued task.
	TaskStatusPending TaskStatus = "PENDING"
	// TaskStatusProcessed is terminal and carries a result.
	TaskStatusProcessed TaskStatus = "PROCESSED"
	// TaskStatusRejected is terminal and carries no result (overload, timeout...).
	TaskStatusRejected TaskStatus = "REJECTED"
)

// IsTerminal returns true when no more events are expected after the status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusProcessed || s == TaskStatusRejected
}

// ParseTaskStatus returns the status for a raw status string, unknown statuses
// are not valid.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case TaskStatusAccepted, TaskStatusPending, TaskStatusProcessed, TaskStatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown task status %q: %w", s, ErrNotValid)
	}
}

// Submission is the outcome of an accepted deferred request.
type Submission struct {
	TaskID  string
	Pending bool
}

// TaskEvent is a single status message received on a task channel.
// Result is only set when Status is TaskStatusProcessed.
type TaskEvent struct {
	TaskID  string
	Status  TaskStatus
	Result  *Result
	Message string
}

// TaskSnapshot is the point in time view of a task returned by the task status endpoint.
type TaskSnapshot struct {
	TaskID         string
	Type           string
	Status         TaskStatus
	CreatedAt      time.Time
	ProcessedAt    *time.Time
	Elapsed        time.Duration
	ProcessingTime time.Duration
	Result         *Result
}
