package query_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/backend/fake"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/storage"
	"github.com/g3a/htpclient/internal/storage/memory"
	"github.com/g3a/htpclient/internal/stream"
	"github.com/g3a/htpclient/internal/submit"
	"github.com/g3a/htpclient/internal/subscription"
)

func newTestService(t *testing.T, cfg fake.BackendConfig) (*query.Service, *subscription.Manager) {
	return newJournaledTestService(t, cfg, nil)
}

func newJournaledTestService(t *testing.T, cfg fake.BackendConfig, journal storage.Repository) (*query.Service, *subscription.Manager) {
	t.Helper()
	require := require.New(t)

	b, err := fake.NewBackend(cfg)
	require.NoError(err)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	baseURL := srv.URL + "/api/products/async"
	submitter, err := submit.NewClient(submit.ClientConfig{BaseURL: baseURL})
	require.NoError(err)
	opener, err := stream.NewSSEOpener(stream.SSEOpenerConfig{BaseURL: baseURL})
	require.NoError(err)
	subscriber, err := stream.NewTaskSubscriber(stream.SubscriberConfig{Opener: opener})
	require.NoError(err)
	manager, err := subscription.NewManager(subscription.ManagerConfig{Subscriber: subscriber})
	require.NoError(err)

	svc, err := query.NewService(query.ServiceConfig{Submitter: submitter, Manager: manager, Journal: journal})
	require.NoError(err)

	return svc, manager
}

func TestServiceRun(t *testing.T) {
	catalog := fake.DefaultCatalog(47)

	tests := map[string]struct {
		backend   fake.BackendConfig
		req       query.Request
		expResp   func(t *testing.T, resp *query.Response)
		expErrIs  error
		expNoResp bool
	}{
		"A paged listing should propagate the pagination unchanged.": {
			backend: fake.BackendConfig{
				Products:  catalog,
				NewTaskID: func() string { return "abc123" },
			},
			req: query.Request{Operation: model.PagedProducts(0, 10)},
			expResp: func(t *testing.T, resp *query.Response) {
				assert := assert.New(t)
				require := require.New(t)

				assert.Equal("abc123", resp.TaskID)
				assert.Equal(model.TaskStatusProcessed, resp.Status)
				require.NotNil(resp.Result)
				assert.Equal(catalog[:10], resp.Result.Products)
				assert.Equal(&model.Page{CurrentPage: 0, TotalPages: 5, PageSize: 10, TotalElements: 47}, resp.Result.Page)
				assert.NotEmpty(resp.Result.Raw)
			},
		},
		"A rejected search should not deliver a result.": {
			backend: fake.BackendConfig{
				NewTaskID: func() string { return "t-phone" },
				Resolve: func(t fake.Task) *fake.Outcome {
					if t.Kind == model.OperationSearchProducts && t.Params["keyword"] == "phone" {
						return &fake.Outcome{Status: model.TaskStatusRejected}
					}
					return nil
				},
			},
			req: query.Request{Operation: model.SearchProducts("phone")},
			expResp: func(t *testing.T, resp *query.Response) {
				assert.Equal(t, "t-phone", resp.TaskID)
				assert.Equal(t, model.TaskStatusRejected, resp.Status)
				assert.Nil(t, resp.Result)
			},
		},
		"A lookup by id should return the product.": {
			backend: fake.BackendConfig{Products: catalog},
			req:     query.Request{Operation: model.ProductByID(3)},
			expResp: func(t *testing.T, resp *query.Response) {
				require.NotNil(t, resp.Result)
				require.NotNil(t, resp.Result.Found)
				assert.True(t, *resp.Result.Found)
				assert.Equal(t, &catalog[2], resp.Result.Product)
			},
		},
		"An overloaded backend should fail the submission.": {
			backend:   fake.BackendConfig{Overloaded: func() bool { return true }},
			req:       query.Request{Operation: model.AllProducts()},
			expErrIs:  model.ErrTransportFailure,
			expNoResp: true,
		},
		"Waiting an expired task should be a protocol violation.": {
			backend:   fake.BackendConfig{},
			req:       query.Request{TaskID: "expired"},
			expErrIs:  model.ErrProtocolViolation,
			expNoResp: true,
		},
		"A task not resolved in time should time out.": {
			backend:   fake.BackendConfig{ProcessingDelay: time.Second},
			req:       query.Request{Operation: model.AllProducts(), Timeout: 50 * time.Millisecond},
			expErrIs:  query.ErrTimeout,
			expNoResp: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			svc, manager := newTestService(t, test.backend)

			resp, err := svc.Run(context.TODO(), test.req)

			// Nothing is left subscribed whatever the outcome.
			assert.Eventually(func() bool { return manager.Active() == nil }, 5*time.Second, 5*time.Millisecond)

			if test.expErrIs != nil {
				assert.ErrorIs(err, test.expErrIs)
				assert.Nil(resp)
				return
			}
			require.NoError(err)
			test.expResp(t, resp)
		})
	}
}

func TestServiceRunContextCancel(t *testing.T) {
	assert := assert.New(t)

	svc, manager := newTestService(t, fake.BackendConfig{ProcessingDelay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.Run(ctx, query.Request{Operation: model.AllProducts()})

	assert.ErrorIs(err, context.DeadlineExceeded)
	assert.Nil(manager.Active())
}

func TestNewService(t *testing.T) {
	_, err := query.NewService(query.ServiceConfig{})
	assert.Error(t, err)
}

func TestServiceRunJournal(t *testing.T) {
	tests := map[string]struct {
		backend   fake.BackendConfig
		req       query.Request
		expEntry  func(t *testing.T, entries []model.JournalEntry)
		expNoResp bool
	}{
		"A processed task should be journaled without its result.": {
			backend: fake.BackendConfig{NewTaskID: func() string { return "t1" }},
			req:     query.Request{Operation: model.ProductsByCategoryPaged("Home & Garden", 1, 5)},
			expEntry: func(t *testing.T, entries []model.JournalEntry) {
				require.Len(t, entries, 1)
				e := entries[0]
				assert.Equal(t, "t1", e.TaskID)
				assert.Equal(t, model.OperationProductsByCategoryPaged, e.Kind)
				assert.Equal(t, "/category/Home%20&%20Garden/paged?page=1&size=5", e.Request)
				assert.Equal(t, model.TaskStatusProcessed, e.Status)
				assert.Empty(t, e.Error)
				assert.True(t, e.IsResolved())
			},
		},
		"A rejected task should be journaled as rejected.": {
			backend: fake.BackendConfig{
				Resolve: func(fake.Task) *fake.Outcome { return &fake.Outcome{Status: model.TaskStatusRejected} },
			},
			req: query.Request{Operation: model.AllProducts()},
			expEntry: func(t *testing.T, entries []model.JournalEntry) {
				require.Len(t, entries, 1)
				assert.Equal(t, model.TaskStatusRejected, entries[0].Status)
				assert.True(t, entries[0].IsResolved())
			},
		},
		"A timed out task should be journaled with the error.": {
			backend:   fake.BackendConfig{ProcessingDelay: time.Second},
			req:       query.Request{Operation: model.AllProducts(), Timeout: 50 * time.Millisecond},
			expNoResp: true,
			expEntry: func(t *testing.T, entries []model.JournalEntry) {
				require.Len(t, entries, 1)
				assert.Equal(t, model.TaskStatusAccepted, entries[0].Status)
				assert.Contains(t, entries[0].Error, "timed out")
				assert.True(t, entries[0].IsResolved())
			},
		},
		"Waiting a task by ID should not journal it.": {
			backend:   fake.BackendConfig{},
			req:       query.Request{TaskID: "expired"},
			expNoResp: true,
			expEntry: func(t *testing.T, entries []model.JournalEntry) {
				assert.Empty(t, entries)
			},
		},
		"A failed submission should not be journaled.": {
			backend:   fake.BackendConfig{Overloaded: func() bool { return true }},
			req:       query.Request{Operation: model.AllProducts()},
			expNoResp: true,
			expEntry: func(t *testing.T, entries []model.JournalEntry) {
				assert.Empty(t, entries)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			journal, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)
			svc, _ := newJournaledTestService(t, test.backend, journal)

			resp, err := svc.Run(context.TODO(), test.req)
			if test.expNoResp {
				require.Error(err)
			} else {
				require.NoError(err)
				require.NotNil(resp)
			}

			entries, err := journal.ListEntries(context.TODO(), 0)
			require.NoError(err)
			test.expEntry(t, entries)
		})
	}
}

func TestServiceRunSubscriptionCancelled(t *testing.T) {
	tests := map[string]struct {
		cancel func(m *subscription.Manager)
	}{
		"Cancelling the active subscription should end the run.": {
			cancel: func(m *subscription.Manager) { m.CancelActive() },
		},
		"Starting another subscription should end the run.": {
			cancel: func(m *subscription.Manager) {
				m.StartFor(context.Background(), "other-task", stream.Callbacks{})
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			journal, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)
			svc, manager := newJournaledTestService(t, fake.BackendConfig{ProcessingDelay: time.Hour}, journal)
			t.Cleanup(manager.CancelActive)

			errs := make(chan error, 1)
			go func() {
				_, err := svc.Run(context.TODO(), query.Request{Operation: model.AllProducts()})
				errs <- err
			}()

			require.Eventually(func() bool { return manager.Active() != nil }, time.Second, 5*time.Millisecond)
			test.cancel(manager)

			select {
			case err := <-errs:
				assert.ErrorIs(err, query.ErrCancelled)
			case <-time.After(5 * time.Second):
				t.Fatal("run still blocked after its subscription was cancelled")
			}

			entries, err := journal.ListEntries(context.TODO(), 0)
			require.NoError(err)
			require.Len(entries, 1)
			assert.Equal(model.TaskStatusAccepted, entries[0].Status)
			assert.Contains(entries[0].Error, "cancelled")
			assert.True(entries[0].IsResolved())
		})
	}
}
