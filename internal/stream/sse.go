package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/g3a/htpclient/internal/log"
)

// SSEOpenerConfig is the configuration of the server sent events transport.
type SSEOpenerConfig struct {
	// BaseURL is the async API base URL, channels are at {BaseURL}/subscribe/{taskID}.
	BaseURL string
	// HTTPClient must not have a timeout, it would end the channels.
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *SSEOpenerConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stream.SSEOpener"})

	return nil
}

// SSEOpener opens task channels as server sent event streams.
type SSEOpener struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewSSEOpener returns a new server sent events opener.
func NewSSEOpener(cfg SSEOpenerConfig) (*SSEOpener, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &SSEOpener{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// Open connects to the event stream of the task. The connection is bound to ctx.
func (o *SSEOpener) Open(ctx context.Context, taskID string) (Channel, error) {
	u := o.baseURL + "/subscribe/" + url.PathEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, u)
	}

	return &sseChannel{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

type sseChannel struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

// Next returns the data of the next message event. Named events other than
// "message" and comments are skipped.
func (c *sseChannel) Next(ctx context.Context) ([]byte, error) {
	var (
		event string
		data  []string
	)

	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				// A last event without the trailing blank line is still dispatched.
				event, data = parseSSELine(strings.TrimRight(line, "\r"), event, data)
				if dispatchable(event, data) {
					return []byte(strings.Join(data, "\n")), nil
				}
				return nil, fmt.Errorf("stream closed before a terminal event: %w", io.ErrUnexpectedEOF)
			}
			return nil, fmt.Errorf("reading stream: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			event, data = parseSSELine(line, event, data)
			continue
		}

		// Blank line dispatches the event.
		if dispatchable(event, data) {
			return []byte(strings.Join(data, "\n")), nil
		}
		event, data = "", nil
	}
}

func (c *sseChannel) Close() error {
	return c.body.Close()
}

func dispatchable(event string, data []string) bool {
	return len(data) > 0 && (event == "" || event == "message")
}

func parseSSELine(line, event string, data []string) (string, []string) {
	if strings.HasPrefix(line, ":") {
		return event, data
	}

	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		event = value
	case "data":
		data = append(data, value)
	}

	return event, data
}
