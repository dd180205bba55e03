// Package submit issues deferred read requests to the products async API and
// extracts the task identifier the result will be correlated with.
package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/wire"
)

// RequestIDHeader is the header used to correlate client requests on the backend logs.
const RequestIDHeader = "X-Request-ID"

// Submitter submits deferred requests.
type Submitter interface {
	Submit(ctx context.Context, op model.Operation) (model.Submission, error)
}

// StatusGetter gets the status of submitted tasks.
type StatusGetter interface {
	TaskStatus(ctx context.Context, taskID string) (*model.TaskSnapshot, error)
}

// ClientConfig is the configuration of the submission client.
type ClientConfig struct {
	// BaseURL is the async API base URL (e.g. http://localhost:8080/api/products/async).
	BaseURL string
	// HTTPClient is the HTTP client used for the requests, its timeout bounds every request.
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required: %w", model.ErrNotValid)
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w: %w", model.ErrNotValid, err)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "submit.Client"})

	return nil
}

// Client submits deferred requests and queries task status.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewClient returns a new submission client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// Submit issues the deferred request of the operation and returns the accepted task.
// It never subscribes to the task.
func (c *Client) Submit(ctx context.Context, op model.Operation) (model.Submission, error) {
	if err := op.Validate(); err != nil {
		return model.Submission{}, fmt.Errorf("invalid operation: %w", err)
	}

	u := c.baseURL + op.Path
	if len(op.Params) > 0 {
		u += "?" + op.Params.Encode()
	}

	logger := c.logger.WithValues(log.Kv{"operation": op.Kind})
	status, body, err := c.get(ctx, u)
	if err != nil {
		logger.Warningf("Submission failed: %s", err)
		return model.Submission{}, &model.SubmissionError{Kind: model.ErrorKindTransportFailure, Err: err}
	}
	if status < 200 || status > 299 {
		logger.Warningf("Submission rejected with HTTP %d", status)
		return model.Submission{}, &model.SubmissionError{
			Kind:       model.ErrorKindTransportFailure,
			StatusCode: status,
			Payload:    body,
			Err:        fmt.Errorf("unexpected HTTP status %d", status),
		}
	}

	var acc wire.Accepted
	if err := json.Unmarshal(body, &acc); err != nil {
		return model.Submission{}, protocolViolation(status, body, fmt.Errorf("could not decode response: %w", err))
	}
	if acc.Status != string(model.TaskStatusAccepted) {
		return model.Submission{}, protocolViolation(status, body, fmt.Errorf("unexpected status %q", acc.Status))
	}
	if acc.IDTask == "" {
		return model.Submission{}, protocolViolation(status, body, errors.New("missing task id"))
	}

	logger.WithValues(log.Kv{"task-id": acc.IDTask}).Debugf("Task accepted")

	return model.Submission{TaskID: acc.IDTask, Pending: true}, nil
}

// TaskStatus returns the current status of a task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*model.TaskSnapshot, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	status, body, err := c.get(ctx, c.baseURL+"/task/"+url.PathEscape(taskID))
	if err != nil {
		return nil, fmt.Errorf("could not get task status: %w: %w", model.ErrTransportFailure, err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("task %q: %w", taskID, model.ErrNotFound)
	case status < 200 || status > 299:
		return nil, fmt.Errorf("task status returned HTTP %d: %w", status, model.ErrTransportFailure)
	}

	var snap wire.TaskSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("could not decode task status: %w: %w", model.ErrProtocolViolation, err)
	}
	ts, err := snap.ToModel()
	if err != nil {
		return nil, fmt.Errorf("invalid task status: %w: %w", model.ErrProtocolViolation, err)
	}

	return ts, nil
}

func (c *Client) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}

	return resp.StatusCode, body, nil
}

func protocolViolation(status int, body []byte, err error) *model.SubmissionError {
	return &model.SubmissionError{
		Kind:       model.ErrorKindProtocolViolation,
		StatusCode: status,
		Payload:    body,
		Err:        err,
	}
}
