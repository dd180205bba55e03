package printer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/printer"
)

func pagedResultFixture() model.Result {
	return model.Result{
		Products: []model.Product{
			{ID: 1, Name: "Laptop Pro", Price: 1299.99, Category: "electronics", Stock: 12},
			{ID: 2, Name: "Desk Lamp", Price: 19.5, Category: "home", Stock: 40},
		},
		Page: &model.Page{CurrentPage: 0, TotalPages: 24, PageSize: 2, TotalElements: 47},
	}
}

func TestTablePrinterPrintResult(t *testing.T) {
	found := true
	notFound := false
	count := 3

	tests := map[string]struct {
		result      model.Result
		expContains []string
		expMissing  []string
	}{
		"paged products should print the page and the products table": {
			result: pagedResultFixture(),
			expContains: []string{
				"Task:       abc123",
				"Page:       1/24 (size 2, 47 total)",
				"ID  NAME        CATEGORY     PRICE    STOCK",
				"1   Laptop Pro  electronics  1299.99  12",
			},
		},
		"search should print the keyword and count": {
			result: model.Result{
				Keyword:  "lamp",
				Count:    &count,
				Products: []model.Product{{ID: 2, Name: "Desk Lamp", Price: 19.5, Category: "home", Stock: 40}},
			},
			expContains: []string{"Keyword:    lamp", "Count:      3", "Desk Lamp"},
			expMissing:  []string{"Page:"},
		},
		"found product should print a single row": {
			result: model.Result{
				Found:   &found,
				Product: &model.Product{ID: 7, Name: "Chair", Price: 45, Category: "home", Stock: 3},
			},
			expContains: []string{"Found:      yes", "7   Chair"},
		},
		"missing product should print the message": {
			result: model.Result{
				Found:   &notFound,
				Message: "Product not found",
			},
			expContains: []string{"Found:      no (Product not found)"},
			expMissing:  []string{"NAME"},
		},
		"empty result should only print the task": {
			result:      model.Result{},
			expContains: []string{"Task:       abc123"},
			expMissing:  []string{"NAME"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintResult("abc123", test.result)
			require.NoError(err)

			out := buf.String()
			for _, exp := range test.expContains {
				assert.Contains(out, exp)
			}
			for _, exp := range test.expMissing {
				assert.NotContains(out, exp)
			}
		})
	}
}

func TestJSONPrinterPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintResult("abc123", pagedResultFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"task_id": "abc123"`)
	assert.Contains(t, out, `"total_elements": 47`)
	assert.Contains(t, out, `"name": "Laptop Pro"`)
	assert.NotContains(t, out, `"found"`)
}

func TestTablePrinterPrintTaskStatus(t *testing.T) {
	createdAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	processedAt := createdAt.Add(2 * time.Second)

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTaskStatus(model.TaskSnapshot{
		TaskID:         "abc123",
		Type:           "GET_PAGED_PRODUCTS",
		Status:         model.TaskStatusProcessed,
		CreatedAt:      createdAt,
		ProcessedAt:    &processedAt,
		ProcessingTime: 2 * time.Second,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Type:       GET_PAGED_PRODUCTS")
	assert.Contains(t, out, "Status:     PROCESSED")
	assert.Contains(t, out, "Processed:  2026-01-30 10:00:02 UTC")
	assert.Contains(t, out, "Took:       2s")
	assert.NotContains(t, out, "Elapsed:")
}

func TestJSONPrinterPrintTaskStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTaskStatus(model.TaskSnapshot{
		TaskID:    "abc123",
		Status:    model.TaskStatusPending,
		CreatedAt: time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"status": "PENDING"`)
	assert.Contains(t, out, `"processed_at": null`)
	assert.Contains(t, out, `"elapsed_ms": 1500`)
}

func TestTablePrinterPrintStats(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintStats(model.WorkerStats{
		TotalTasksProcessed: 10,
		TasksSuccessful:     8,
		TasksRejected:       2,
		Uptime:              90 * time.Second,
		AvgProcessingTime:   250 * time.Millisecond,
		TasksByType:         map[string]int64{"SEARCH_PRODUCTS": 4, "GET_ALL_PRODUCTS": 6},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Processed:  10 (8 successful, 2 rejected)")
	assert.Contains(t, out, "Uptime:     1m30s")
	assert.Contains(t, out, "Avg time:   250ms")
	assert.Less(t, strings.Index(out, "GET_ALL_PRODUCTS"), strings.Index(out, "SEARCH_PRODUCTS"))
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

func historyFixture() []model.JournalEntry {
	submittedAt := time.Now().UTC().Add(-2 * time.Minute)
	resolvedAt := submittedAt.Add(1200 * time.Millisecond)
	return []model.JournalEntry{
		{
			TaskID:      "t-2",
			Kind:        model.OperationSearchProducts,
			Request:     "/search?keyword=phone",
			Status:      model.TaskStatusAccepted,
			SubmittedAt: submittedAt,
		},
		{
			TaskID:      "t-1",
			Kind:        model.OperationAllProducts,
			Request:     "",
			Status:      model.TaskStatusProcessed,
			SubmittedAt: submittedAt,
			ResolvedAt:  &resolvedAt,
		},
	}
}

func TestTablePrinterPrintHistory(t *testing.T) {
	tests := map[string]struct {
		entries []model.JournalEntry
		expOut  []string
	}{
		"An empty journal should print a message.": {
			entries: nil,
			expOut:  []string{"No tasks found"},
		},
		"Entries should print their status and duration.": {
			entries: historyFixture(),
			expOut: []string{
				"TASK ID",
				"t-2",
				"WAITING",
				"t-1",
				"PROCESSED",
				"2 minutes ago",
				"1.2s",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintHistory(test.entries)
			require.NoError(t, err)

			for _, exp := range test.expOut {
				assert.Contains(t, buf.String(), exp)
			}
		})
	}
}

func TestJSONPrinterPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintHistory(historyFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"task_id": "t-2"`)
	assert.Contains(t, out, `"operation": "SEARCH_PRODUCTS"`)
	assert.Contains(t, out, `"request": "/search?keyword=phone"`)
	assert.Contains(t, out, `"resolved_at": null`)
	assert.Contains(t, out, `"status": "PROCESSED"`)
	assert.NotContains(t, out, `"error"`)

	buf.Reset()
	require.NoError(t, p.PrintHistory(nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}
