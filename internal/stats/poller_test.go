package stats_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/stats"
)

func TestPollerRefresh(t *testing.T) {
	tests := map[string]struct {
		status    int
		body      string
		expStats  model.WorkerStats
		expErr    bool
		expStatus int
	}{
		"A full stats body should be converted.": {
			status: http.StatusOK,
			body: `{"totalTasksProcessed":10,"tasksSuccessful":8,"tasksRejected":2,"uptime":120,"avgProcessingTimeMs":12.5,"storedResults":4,
"activeEmitters":1,"availablePermits":2990,"queueLength":3,"systemLoad":0.75,"tasksByType":{"GET_ALL_PRODUCTS":10},"registeredProcessors":["GET_ALL_PRODUCTS"]}`,
			expStats: model.WorkerStats{
				TotalTasksProcessed:  10,
				TasksSuccessful:      8,
				TasksRejected:        2,
				Uptime:               2 * time.Minute,
				AvgProcessingTime:    12500 * time.Microsecond,
				StoredResults:        4,
				ActiveEmitters:       1,
				AvailablePermits:     2990,
				QueueLength:          3,
				SystemLoad:           0.75,
				TasksByType:          map[string]int64{"GET_ALL_PRODUCTS": 10},
				RegisteredProcessors: []string{"GET_ALL_PRODUCTS"},
			},
		},
		"Missing fields should default to zero.": {
			status:   http.StatusOK,
			body:     `{"totalTasksProcessed":1}`,
			expStats: model.WorkerStats{TotalTasksProcessed: 1},
		},
		"A server error should fail with the status code.": {
			status:    http.StatusInternalServerError,
			expErr:    true,
			expStatus: http.StatusInternalServerError,
		},
		"An invalid body should fail.": {
			status:    http.StatusOK,
			body:      `[]`,
			expErr:    true,
			expStatus: http.StatusOK,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal("/api/admin/worker/stats", r.URL.Path)
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer srv.Close()

			p, err := stats.NewPoller(stats.PollerConfig{AdminURL: srv.URL + "/api/admin/worker", Interval: time.Second})
			require.NoError(err)

			got, err := p.Refresh(context.TODO())

			if test.expErr {
				var serr *model.StatsError
				require.True(errors.As(err, &serr))
				assert.Equal(test.expStatus, serr.StatusCode)
				_, ok := p.Latest()
				assert.False(ok)
				return
			}
			require.NoError(err)
			assert.Equal(test.expStats, got)
			latest, ok := p.Latest()
			assert.True(ok)
			assert.Equal(test.expStats, latest)
		})
	}
}

func TestPollerFailedRefreshKeepsLatest(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"totalTasksProcessed":7}`))
	}))
	defer srv.Close()

	p, err := stats.NewPoller(stats.PollerConfig{AdminURL: srv.URL, Interval: time.Second})
	require.NoError(err)

	_, err = p.Refresh(context.TODO())
	require.NoError(err)

	fail.Store(true)
	_, err = p.Refresh(context.TODO())
	require.Error(err)

	latest, ok := p.Latest()
	assert.True(ok)
	assert.Equal(int64(7), latest.TotalTasksProcessed)
}

func TestPollerRunContinuesAfterFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First refresh fails, the next ones succeed.
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"totalTasksProcessed":3}`))
	}))
	defer srv.Close()

	var (
		mu        sync.Mutex
		errs      int
		refreshes int
	)
	p, err := stats.NewPoller(stats.PollerConfig{
		AdminURL:  srv.URL,
		Interval:  10 * time.Millisecond,
		OnError:   func(error) { mu.Lock(); errs++; mu.Unlock() },
		OnRefresh: func(model.WorkerStats) { mu.Lock(); refreshes++; mu.Unlock() },
	})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	assert.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return refreshes >= 2
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(1, errs)
	latest, ok := p.Latest()
	assert.True(ok)
	assert.Equal(int64(3), latest.TotalTasksProcessed)
}

func TestNewPoller(t *testing.T) {
	tests := map[string]struct {
		cfg    stats.PollerConfig
		expErr bool
	}{
		"Valid config.": {
			cfg: stats.PollerConfig{AdminURL: "http://localhost:8080/api/admin/worker", Interval: time.Second},
		},
		"Missing admin URL should fail.": {
			cfg:    stats.PollerConfig{Interval: time.Second},
			expErr: true,
		},
		"Zero interval should fail.": {
			cfg:    stats.PollerConfig{AdminURL: "http://localhost:8080/api/admin/worker"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := stats.NewPoller(test.cfg)
			if test.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
