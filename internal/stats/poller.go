// Package stats polls the backend worker metrics on a fixed interval.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/wire"
)

// PollerConfig is the configuration of the stats poller.
type PollerConfig struct {
	// AdminURL is the worker admin base URL, stats are at {AdminURL}/stats.
	AdminURL string
	// Interval is the refresh interval of Run.
	Interval   time.Duration
	HTTPClient *http.Client
	Logger     log.Logger
	// OnRefresh is called with every successful refresh.
	OnRefresh func(model.WorkerStats)
	// OnError is called with every failed refresh.
	OnError func(error)
}

func (c *PollerConfig) defaults() error {
	if c.AdminURL == "" {
		return fmt.Errorf("admin URL is required: %w", model.ErrNotValid)
	}
	c.AdminURL = strings.TrimSuffix(c.AdminURL, "/")

	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive: %w", model.ErrNotValid)
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stats.Poller"})
	if c.OnRefresh == nil {
		c.OnRefresh = func(model.WorkerStats) {}
	}
	if c.OnError == nil {
		c.OnError = func(error) {}
	}

	return nil
}

// Poller refreshes the worker stats.
type Poller struct {
	url        string
	interval   time.Duration
	httpClient *http.Client
	logger     log.Logger
	onRefresh  func(model.WorkerStats)
	onError    func(error)

	mu     sync.RWMutex
	latest *model.WorkerStats
}

// NewPoller returns a new stats poller.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Poller{
		url:        cfg.AdminURL + "/stats",
		interval:   cfg.Interval,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		onRefresh:  cfg.OnRefresh,
		onError:    cfg.OnError,
	}, nil
}

// Refresh gets the current worker stats. Failures are returned as *model.StatsError
// and never replace the latest successful snapshot.
func (p *Poller) Refresh(ctx context.Context) (model.WorkerStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return model.WorkerStats{}, &model.StatsError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return model.WorkerStats{}, &model.StatsError{Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.WorkerStats{}, &model.StatsError{StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d from %s", resp.StatusCode, p.url)}
	}

	var s wire.Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return model.WorkerStats{}, &model.StatsError{StatusCode: resp.StatusCode, Err: fmt.Errorf("could not decode stats: %w", err)}
	}

	stats := s.ToModel()
	p.mu.Lock()
	p.latest = &stats
	p.mu.Unlock()

	return stats, nil
}

// Latest returns the most recent successful snapshot, false if there is none yet.
func (p *Poller) Latest() (model.WorkerStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return model.WorkerStats{}, false
	}
	return *p.latest, true
}

// Run refreshes immediately and then on every interval until the context is done.
// Failed refreshes are reported and the schedule continues.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Infof("Polling worker stats every %s", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	stats, err := p.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warningf("Could not refresh worker stats: %s", err)
		p.onError(err)
		return
	}

	p.logger.Debugf("Worker stats refreshed")
	p.onRefresh(stats)
}
