package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3a/htpclient/internal/backend/fake"
	"github.com/g3a/htpclient/internal/model"
)

func TestRun(t *testing.T) {
	tests := map[string]struct {
		backend     fake.BackendConfig
		args        []string
		expContains []string
		expErr      bool
	}{
		"Querying a page should print the page of products.": {
			backend: fake.BackendConfig{NewTaskID: func() string { return "abc123" }},
			args:    []string{"query", "paged", "--size", "5", "--format", "json"},
			expContains: []string{
				`"task_id": "abc123"`,
				`"total_elements": 47`,
				`"total_pages": 10`,
			},
		},
		"Looking up a product should print it.": {
			args:        []string{"query", "by-id", "--id", "3"},
			expContains: []string{"Found:      yes"},
		},
		"A rejected task should fail.": {
			backend: fake.BackendConfig{
				Resolve: func(fake.Task) *fake.Outcome { return &fake.Outcome{Status: model.TaskStatusRejected} },
			},
			args:   []string{"query", "all"},
			expErr: true,
		},
		"An overloaded backend should fail.": {
			backend: fake.BackendConfig{Overloaded: func() bool { return true }},
			args:    []string{"query", "search", "--keyword", "lamp"},
			expErr:  true,
		},
		"An invalid operation should fail before submitting.": {
			args:   []string{"query", "price", "--min-price", "10", "--max-price", "1"},
			expErr: true,
		},
		"Waiting for an expired task should fail.": {
			args:   []string{"subscribe", "expired-task"},
			expErr: true,
		},
		"The status of an unknown task should fail.": {
			args:   []string{"status", "missing-task"},
			expErr: true,
		},
		"Stats should be printed.": {
			args:        []string{"stats", "--format", "json"},
			expContains: []string{`"total_tasks_processed": 0`, `"GET_ALL_PRODUCTS"`},
		},
		"An unknown command should fail.": {
			args:   []string{"unknown"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			b, err := fake.NewBackend(test.backend)
			require.NoError(err)
			srv := httptest.NewServer(b)
			defer srv.Close()

			// No default config file.
			t.Setenv("HOME", t.TempDir())

			args := append([]string{
				"htpctl",
				"--environment", "development",
				"--api-url", srv.URL + "/api/products/async",
				"--admin-url", srv.URL + "/api/admin/worker",
			}, test.args...)

			var stdout, stderr bytes.Buffer
			err = Run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)

			if test.expErr {
				assert.Error(err)
				return
			}

			require.NoError(err)
			for _, exp := range test.expContains {
				assert.Contains(stdout.String(), exp)
			}
		})
	}
}

func TestRunHistory(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ids := []string{"t-1", "t-2"}
	b, err := fake.NewBackend(fake.BackendConfig{
		NewTaskID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
		Resolve: func(t fake.Task) *fake.Outcome {
			if t.Kind == model.OperationSearchProducts {
				return &fake.Outcome{Status: model.TaskStatusRejected}
			}
			return nil
		},
	})
	require.NoError(err)
	srv := httptest.NewServer(b)
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	historyDB := filepath.Join(t.TempDir(), "history.db")
	run := func(args ...string) (string, error) {
		var stdout, stderr bytes.Buffer
		args = append([]string{
			"htpctl",
			"--environment", "development",
			"--api-url", srv.URL + "/api/products/async",
			"--admin-url", srv.URL + "/api/admin/worker",
			"--history-db", historyDB,
		}, args...)
		err := Run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
		return stdout.String(), err
	}

	_, err = run("query", "all")
	require.NoError(err)
	_, err = run("query", "search", "--keyword", "phone")
	require.Error(err)

	out, err := run("history", "--format", "json")
	require.NoError(err)
	assert.Contains(out, `"task_id": "t-1"`)
	assert.Contains(out, `"status": "PROCESSED"`)
	assert.Contains(out, `"task_id": "t-2"`)
	assert.Contains(out, `"status": "REJECTED"`)
	assert.Contains(out, `"request": "/search?keyword=phone"`)

	out, err = run("history", "--status", "REJECTED", "--format", "json")
	require.NoError(err)
	assert.NotContains(out, `"t-1"`)
	assert.Contains(out, `"t-2"`)

	out, err = run("history", "--prune", "1ns")
	require.NoError(err)
	assert.Contains(out, "Removed 2 tasks")

	out, err = run("history")
	require.NoError(err)
	assert.Contains(out, "No tasks found")

	_, err = run("--no-history", "history")
	assert.Error(err)
}
