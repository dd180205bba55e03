// Package wire has the JSON representations used by the high throughput products
// API and the conversions to the domain models.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/g3a/htpclient/internal/model"
)

// Accepted is the body of a submission response.
type Accepted struct {
	Status string `json:"status"`
	IDTask string `json:"idTask"`
}

// TaskEvent is a message received on a task channel.
type TaskEvent struct {
	IDTask  string          `json:"idTask,omitempty"`
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Product is a catalog item.
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
}

// Result is a processed task result.
type Result struct {
	Products      []Product `json:"products,omitempty"`
	Count         *int      `json:"count,omitempty"`
	Keyword       string    `json:"keyword,omitempty"`
	CurrentPage   *int      `json:"currentPage,omitempty"`
	TotalPages    *int      `json:"totalPages,omitempty"`
	PageSize      *int      `json:"pageSize,omitempty"`
	TotalElements *int64    `json:"totalElements,omitempty"`
	Product       *Product  `json:"product,omitempty"`
	Found         *bool     `json:"found,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Stats is the worker stats body.
type Stats struct {
	TotalTasksProcessed  int64            `json:"totalTasksProcessed"`
	TasksSuccessful      int64            `json:"tasksSuccessful"`
	TasksRejected        int64            `json:"tasksRejected"`
	Uptime               int64            `json:"uptime"`
	AvgProcessingTimeMs  float64          `json:"avgProcessingTimeMs"`
	StoredResults        int64            `json:"storedResults"`
	ActiveEmitters       int64            `json:"activeEmitters,omitempty"`
	AvailablePermits     int64            `json:"availablePermits,omitempty"`
	QueueLength          int64            `json:"queueLength,omitempty"`
	SystemLoad           float64          `json:"systemLoad,omitempty"`
	TasksByType          map[string]int64 `json:"tasksByType,omitempty"`
	RegisteredProcessors []string         `json:"registeredProcessors,omitempty"`
}

// TaskSnapshot is the task status endpoint body.
type TaskSnapshot struct {
	IDTask           string          `json:"idTask"`
	TaskType         string          `json:"taskType"`
	CreatedAt        string          `json:"createdAt"`
	Status           string          `json:"status"`
	ElapsedTimeMs    int64           `json:"elapsedTimeMs,omitempty"`
	ProcessingTimeMs int64           `json:"processingTimeMs,omitempty"`
	ProcessedAt      string          `json:"processedAt,omitempty"`
	Result           json.RawMessage `json:"result,omitempty"`
}

// DecodeResult decodes a result payload keeping the raw bytes. The backend sends
// an empty string when a processed task has no result, that decodes to an empty result.
func DecodeResult(raw []byte) (*model.Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return &model.Result{Raw: raw}, nil
	}

	var r Result
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, fmt.Errorf("could not decode result: %w", err)
	}

	res := r.toModel()
	res.Raw = raw
	return res, nil
}

func (r Result) toModel() *model.Result {
	res := &model.Result{
		Count:   r.Count,
		Keyword: r.Keyword,
		Found:   r.Found,
		Message: r.Message,
	}

	if r.Products != nil {
		res.Products = make([]model.Product, 0, len(r.Products))
		for _, p := range r.Products {
			res.Products = append(res.Products, p.toModel())
		}
	}

	if r.Product != nil {
		p := r.Product.toModel()
		res.Product = &p
	}

	// Same rule as the web client: pagination is present when totalPages is.
	if r.TotalPages != nil {
		page := &model.Page{TotalPages: *r.TotalPages}
		if r.CurrentPage != nil {
			page.CurrentPage = *r.CurrentPage
		}
		if r.PageSize != nil {
			page.PageSize = *r.PageSize
		}
		if r.TotalElements != nil {
			page.TotalElements = *r.TotalElements
		}
		res.Page = page
	}

	return res
}

func (p Product) toModel() model.Product {
	return model.Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Stock:    p.Stock,
	}
}

// ToModel converts the stats body to the domain model.
func (s Stats) ToModel() model.WorkerStats {
	return model.WorkerStats{
		TotalTasksProcessed:  s.TotalTasksProcessed,
		TasksSuccessful:      s.TasksSuccessful,
		TasksRejected:        s.TasksRejected,
		Uptime:               time.Duration(s.Uptime) * time.Second,
		AvgProcessingTime:    time.Duration(s.AvgProcessingTimeMs * float64(time.Millisecond)),
		StoredResults:        s.StoredResults,
		ActiveEmitters:       s.ActiveEmitters,
		AvailablePermits:     s.AvailablePermits,
		QueueLength:          s.QueueLength,
		SystemLoad:           s.SystemLoad,
		TasksByType:          s.TasksByType,
		RegisteredProcessors: s.RegisteredProcessors,
	}
}

// ToModel converts the task status body to the domain model.
func (t TaskSnapshot) ToModel() (*model.TaskSnapshot, error) {
	status, err := model.ParseTaskStatus(t.Status)
	if err != nil {
		return nil, err
	}

	snap := &model.TaskSnapshot{
		TaskID:         t.IDTask,
		Type:           t.TaskType,
		Status:         status,
		Elapsed:        time.Duration(t.ElapsedTimeMs) * time.Millisecond,
		ProcessingTime: time.Duration(t.ProcessingTimeMs) * time.Millisecond,
	}

	if t.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid createdAt %q: %w", t.CreatedAt, err)
		}
		snap.CreatedAt = createdAt
	}

	if t.ProcessedAt != "" {
		processedAt, err := time.Parse(time.RFC3339Nano, t.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid processedAt %q: %w", t.ProcessedAt, err)
		}
		snap.ProcessedAt = &processedAt
	}

	if status == model.TaskStatusProcessed {
		res, err := DecodeResult(t.Result)
		if err != nil {
			return nil, err
		}
		snap.Result = res
	}

	return snap, nil
}
