package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/wire"
)

// ParseEvent parses a task channel message. Malformed payloads are transport
// failures, unknown statuses are protocol violations.
func ParseEvent(taskID string, payload []byte) (*model.TaskEvent, error) {
	var ev wire.TaskEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, &model.SubscriptionError{
			Kind:    model.ErrorKindTransportFailure,
			TaskID:  taskID,
			Payload: payload,
			Err:     fmt.Errorf("malformed event: %w", err),
		}
	}

	status := model.TaskStatus(ev.Status)
	switch status {
	case model.TaskStatusProcessed:
		res, err := wire.DecodeResult(ev.Result)
		if err != nil {
			return nil, &model.SubscriptionError{
				Kind:    model.ErrorKindTransportFailure,
				TaskID:  taskID,
				Payload: payload,
				Err:     fmt.Errorf("malformed result: %w", err),
			}
		}
		return &model.TaskEvent{TaskID: taskID, Status: status, Result: res, Message: ev.Message}, nil

	case model.TaskStatusRejected:
		return &model.TaskEvent{TaskID: taskID, Status: status, Message: ev.Message}, nil
	}

	// Only terminal events are valid on a task channel, the backend reports
	// expired tasks as UNKNOWN.
	err := &model.SubscriptionError{
		Kind:    model.ErrorKindProtocolViolation,
		TaskID:  taskID,
		Status:  ev.Status,
		Payload: payload,
	}
	if ev.Message != "" {
		err.Err = errors.New(ev.Message)
	}
	return nil, err
}

// dispatch delivers the callback of a message. Every message ends the
// subscription.
func dispatch(h *Handle, payload []byte, cb Callbacks) {
	ev, err := ParseEvent(h.TaskID(), payload)
	if err != nil {
		h.deliver(func() { callError(cb, err) })
		return
	}

	switch ev.Status {
	case model.TaskStatusProcessed:
		h.deliver(func() {
			if cb.OnProcessed != nil {
				cb.OnProcessed(*ev.Result)
			}
		})
	case model.TaskStatusRejected:
		h.deliver(func() {
			if cb.OnRejected != nil {
				cb.OnRejected()
			}
		})
	}
}
