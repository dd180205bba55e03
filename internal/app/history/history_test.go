package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/g3a/htpclient/internal/app/history"
	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config history.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: history.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
		},
		"missing repository should fail": {
			config: history.ServiceConfig{
				Logger: log.Noop,
			},
			expErr: true,
		},
		"nil logger should default to noop": {
			config: history.ServiceConfig{
				Repository: &storagemock.MockRepository{},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			svc, err := history.NewService(test.config)

			if test.expErr {
				assert.Error(err)
				assert.Nil(svc)
			} else {
				assert.NoError(err)
				assert.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	submittedAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	e := func(id string, status model.TaskStatus) model.JournalEntry {
		return model.JournalEntry{TaskID: id, Kind: model.OperationAllProducts, Request: "", Status: status, SubmittedAt: submittedAt}
	}

	processed := model.TaskStatusProcessed

	tests := map[string]struct {
		mock      func(m *storagemock.MockRepository)
		req       history.Request
		expResult []model.JournalEntry
		expErr    bool
	}{
		"list all entries without filter": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListEntries", mock.Anything, 0).Once().Return([]model.JournalEntry{
					e("t1", model.TaskStatusProcessed),
					e("t2", model.TaskStatusRejected),
				}, nil)
			},
			req: history.Request{},
			expResult: []model.JournalEntry{
				e("t1", model.TaskStatusProcessed),
				e("t2", model.TaskStatusRejected),
			},
		},
		"the limit should be passed to the repository without filter": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListEntries", mock.Anything, 1).Once().Return([]model.JournalEntry{
					e("t1", model.TaskStatusProcessed),
				}, nil)
			},
			req:       history.Request{Limit: 1},
			expResult: []model.JournalEntry{e("t1", model.TaskStatusProcessed)},
		},
		"filter by status should apply the limit after filtering": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListEntries", mock.Anything, 0).Once().Return([]model.JournalEntry{
					e("t1", model.TaskStatusRejected),
					e("t2", model.TaskStatusProcessed),
					e("t3", model.TaskStatusAccepted),
					e("t4", model.TaskStatusProcessed),
					e("t5", model.TaskStatusProcessed),
				}, nil)
			},
			req: history.Request{Limit: 2, StatusFilter: &processed},
			expResult: []model.JournalEntry{
				e("t2", model.TaskStatusProcessed),
				e("t4", model.TaskStatusProcessed),
			},
		},
		"filter with no matches returns empty list": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListEntries", mock.Anything, 0).Once().Return([]model.JournalEntry{
					e("t1", model.TaskStatusRejected),
				}, nil)
			},
			req:       history.Request{StatusFilter: &processed},
			expResult: []model.JournalEntry{},
		},
		"a negative limit should fail": {
			mock:   func(m *storagemock.MockRepository) {},
			req:    history.Request{Limit: -1},
			expErr: true,
		},
		"repository error should propagate": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListEntries", mock.Anything, 0).Once().Return(nil, fmt.Errorf("database error"))
			},
			req:    history.Request{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &storagemock.MockRepository{}
			test.mock(m)

			svc, err := history.NewService(history.ServiceConfig{
				Repository: m,
				Logger:     log.Noop,
			})
			require.NoError(err)

			result, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
				assert.Equal(test.expResult, result)
			}

			m.AssertExpectations(t)
		})
	}
}

func TestService_Prune(t *testing.T) {
	now := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		mock   func(m *storagemock.MockRepository)
		req    history.PruneRequest
		expN   int
		expErr bool
	}{
		"prune should delete entries older than the age": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteEntriesBefore", mock.Anything, now.Add(-24*time.Hour)).Once().Return(3, nil)
			},
			req:  history.PruneRequest{OlderThan: 24 * time.Hour},
			expN: 3,
		},
		"a zero age should delete everything submitted until now": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteEntriesBefore", mock.Anything, now).Once().Return(7, nil)
			},
			req:  history.PruneRequest{},
			expN: 7,
		},
		"a negative age should fail": {
			mock:   func(m *storagemock.MockRepository) {},
			req:    history.PruneRequest{OlderThan: -time.Hour},
			expErr: true,
		},
		"repository error should propagate": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteEntriesBefore", mock.Anything, mock.Anything).Once().Return(0, fmt.Errorf("database error"))
			},
			req:    history.PruneRequest{OlderThan: time.Hour},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := storagemock.NewMockRepository(t)
			test.mock(m)

			svc, err := history.NewService(history.ServiceConfig{
				Repository: m,
				Now:        func() time.Time { return now },
			})
			require.NoError(err)

			n, err := svc.Prune(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
				assert.Equal(test.expN, n)
			}
		})
	}
}
