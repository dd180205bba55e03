package lib

import (
	"errors"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/model"
)

var (
	// ErrNotFound is returned when a task does not exist or has expired.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned on invalid input.
	ErrNotValid = errors.New("not valid")
	// ErrTransportFailure is returned on network errors and non success responses.
	ErrTransportFailure = errors.New("transport failure")
	// ErrProtocolViolation is returned on unexpected or incomplete payloads.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrTimeout is returned when the query timeout expires before the task is resolved.
	ErrTimeout = errors.New("timeout")
	// ErrCancelled is returned when a wait is interrupted because its subscription was cancelled.
	ErrCancelled = errors.New("cancelled")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var statsErr *model.StatsError
	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrTransportFailure):
		return joinErrors(err, ErrTransportFailure)
	case errors.Is(err, model.ErrProtocolViolation):
		return joinErrors(err, ErrProtocolViolation)
	case errors.Is(err, query.ErrTimeout):
		return joinErrors(err, ErrTimeout)
	case errors.Is(err, query.ErrCancelled):
		return joinErrors(err, ErrCancelled)
	case errors.As(err, &statsErr):
		return joinErrors(err, ErrTransportFailure)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
