package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3a/htpclient/internal/model"
)

func TestParseTaskStatus(t *testing.T) {
	tests := map[string]struct {
		raw         string
		expStatus   model.TaskStatus
		expTerminal bool
		expErr      bool
	}{
		"Accepted should not be terminal.": {
			raw:       "ACCEPTED",
			expStatus: model.TaskStatusAccepted,
		},
		"Pending should not be terminal.": {
			raw:       "PENDING",
			expStatus: model.TaskStatusPending,
		},
		"Processed should be terminal.": {
			raw:         "PROCESSED",
			expStatus:   model.TaskStatusProcessed,
			expTerminal: true,
		},
		"Rejected should be terminal.": {
			raw:         "REJECTED",
			expStatus:   model.TaskStatusRejected,
			expTerminal: true,
		},
		"Unknown should fail.": {
			raw:    "UNKNOWN",
			expErr: true,
		},
		"Lowercase should fail.": {
			raw:    "processed",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			status, err := model.ParseTaskStatus(test.raw)

			if test.expErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrNotValid)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expStatus, status)
			assert.Equal(t, test.expTerminal, status.IsTerminal())
		})
	}
}

func TestErrorKinds(t *testing.T) {
	tests := map[string]struct {
		err                  error
		expTransportFailure  bool
		expProtocolViolation bool
	}{
		"Submission transport failure.": {
			err:                 &model.SubmissionError{Kind: model.ErrorKindTransportFailure, StatusCode: 503},
			expTransportFailure: true,
		},
		"Wrapped submission protocol violation.": {
			err:                  fmt.Errorf("could not submit: %w", &model.SubmissionError{Kind: model.ErrorKindProtocolViolation, Payload: []byte(`{}`)}),
			expProtocolViolation: true,
		},
		"Subscription protocol violation.": {
			err:                  &model.SubscriptionError{Kind: model.ErrorKindProtocolViolation, TaskID: "abc123", Status: "UNKNOWN"},
			expProtocolViolation: true,
		},
		"Subscription transport failure.": {
			err:                 &model.SubscriptionError{Kind: model.ErrorKindTransportFailure, TaskID: "abc123", Err: errors.New("connection reset")},
			expTransportFailure: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expTransportFailure, errors.Is(test.err, model.ErrTransportFailure))
			assert.Equal(t, test.expProtocolViolation, errors.Is(test.err, model.ErrProtocolViolation))
		})
	}
}

func TestSubmissionErrorMessage(t *testing.T) {
	err := &model.SubmissionError{
		Kind:       model.ErrorKindProtocolViolation,
		StatusCode: 202,
		Payload:    []byte(`{"status":"ACCEPTED"}`),
		Err:        errors.New("missing task id"),
	}

	assert.Equal(t, `submission ProtocolViolation (status 202): missing task id: payload: {"status":"ACCEPTED"}`, err.Error())
}
