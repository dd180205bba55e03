package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrTransportFailure is matched by errors caused by the network or a non success response.
	ErrTransportFailure = errors.New("transport failure")
	// ErrProtocolViolation is matched by errors caused by unexpected or incomplete payloads.
	ErrProtocolViolation = errors.New("protocol violation")
)

// ErrorKind classifies submission and subscription errors.
type ErrorKind string

const (
	ErrorKindTransportFailure  ErrorKind = "TransportFailure"
	ErrorKindProtocolViolation ErrorKind = "ProtocolViolation"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case ErrorKindTransportFailure:
		return ErrTransportFailure
	case ErrorKindProtocolViolation:
		return ErrProtocolViolation
	}
	return nil
}

// SubmissionError is returned when a deferred request could not be accepted.
type SubmissionError struct {
	Kind ErrorKind
	// StatusCode is the HTTP status, 0 when there was no response.
	StatusCode int
	// Payload is the raw response body, useful for diagnostics.
	Payload []byte
	Err     error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("submission %s", e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	if e.Kind == ErrorKindProtocolViolation && len(e.Payload) > 0 {
		msg = fmt.Sprintf("%s: payload: %s", msg, e.Payload)
	}
	return msg
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool { return target == e.Kind.sentinel() }

// SubscriptionError is delivered to the error callback of a task subscription.
type SubscriptionError struct {
	Kind   ErrorKind
	TaskID string
	// Status is the unrecognized status, if any.
	Status  string
	Payload []byte
	Err     error
}

func (e *SubscriptionError) Error() string {
	msg := fmt.Sprintf("subscription to task %s %s", e.TaskID, e.Kind)
	if e.Status != "" {
		msg = fmt.Sprintf("%s: unexpected status %q", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

func (e *SubscriptionError) Is(target error) bool { return target == e.Kind.sentinel() }

// StatsError is returned when the worker stats could not be refreshed.
type StatsError struct {
	StatusCode int
	Err        error
}

func (e *StatsError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("stats refresh failed (status %d): %s", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("stats refresh failed: %s", e.Err)
}

func (e *StatsError) Unwrap() error { return e.Err }
