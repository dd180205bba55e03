package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/g3a/htpclient/internal/model"
)

// JSONPrinter prints task information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type productOutput struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
}

type pageOutput struct {
	CurrentPage   int   `json:"current_page"`
	TotalPages    int   `json:"total_pages"`
	PageSize      int   `json:"page_size"`
	TotalElements int64 `json:"total_elements"`
}

type resultOutput struct {
	TaskID   string          `json:"task_id"`
	Products []productOutput `json:"products,omitempty"`
	Count    *int            `json:"count,omitempty"`
	Keyword  string          `json:"keyword,omitempty"`
	Page     *pageOutput     `json:"page,omitempty"`
	Product  *productOutput  `json:"product,omitempty"`
	Found    *bool           `json:"found,omitempty"`
	Message  string          `json:"message,omitempty"`
}

type taskStatusOutput struct {
	TaskID           string     `json:"task_id"`
	Type             string     `json:"type,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at"`
	ElapsedMS        int64      `json:"elapsed_ms"`
	ProcessingTimeMS int64      `json:"processing_time_ms"`
}

type statsOutput struct {
	TotalTasksProcessed  int64            `json:"total_tasks_processed"`
	TasksSuccessful      int64            `json:"tasks_successful"`
	TasksRejected        int64            `json:"tasks_rejected"`
	UptimeMS             int64            `json:"uptime_ms"`
	AvgProcessingTimeMS  int64            `json:"avg_processing_time_ms"`
	StoredResults        int64            `json:"stored_results"`
	ActiveEmitters       int64            `json:"active_emitters"`
	AvailablePermits     int64            `json:"available_permits"`
	QueueLength          int64            `json:"queue_length"`
	SystemLoad           float64          `json:"system_load"`
	TasksByType          map[string]int64 `json:"tasks_by_type,omitempty"`
	RegisteredProcessors []string         `json:"registered_processors,omitempty"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

func mapProduct(p model.Product) productOutput {
	return productOutput{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Stock:    p.Stock,
	}
}

// PrintResult prints a processed task result in JSON format.
func (j *JSONPrinter) PrintResult(taskID string, result model.Result) error {
	output := resultOutput{
		TaskID:  taskID,
		Count:   result.Count,
		Keyword: result.Keyword,
		Found:   result.Found,
		Message: result.Message,
	}

	for _, p := range result.Products {
		output.Products = append(output.Products, mapProduct(p))
	}

	if result.Product != nil {
		p := mapProduct(*result.Product)
		output.Product = &p
	}

	if result.Page != nil {
		output.Page = &pageOutput{
			CurrentPage:   result.Page.CurrentPage,
			TotalPages:    result.Page.TotalPages,
			PageSize:      result.Page.PageSize,
			TotalElements: result.Page.TotalElements,
		}
	}

	return j.encode(output)
}

// PrintTaskStatus prints the task status in JSON format.
func (j *JSONPrinter) PrintTaskStatus(snap model.TaskSnapshot) error {
	output := taskStatusOutput{
		TaskID:           snap.TaskID,
		Type:             snap.Type,
		Status:           string(snap.Status),
		CreatedAt:        snap.CreatedAt.UTC(),
		ElapsedMS:        snap.Elapsed.Milliseconds(),
		ProcessingTimeMS: snap.ProcessingTime.Milliseconds(),
	}

	if snap.ProcessedAt != nil {
		utcTime := snap.ProcessedAt.UTC()
		output.ProcessedAt = &utcTime
	}

	return j.encode(output)
}

// PrintStats prints the worker stats in JSON format.
func (j *JSONPrinter) PrintStats(stats model.WorkerStats) error {
	return j.encode(statsOutput{
		TotalTasksProcessed:  stats.TotalTasksProcessed,
		TasksSuccessful:      stats.TasksSuccessful,
		TasksRejected:        stats.TasksRejected,
		UptimeMS:             stats.Uptime.Milliseconds(),
		AvgProcessingTimeMS:  stats.AvgProcessingTime.Milliseconds(),
		StoredResults:        stats.StoredResults,
		ActiveEmitters:       stats.ActiveEmitters,
		AvailablePermits:     stats.AvailablePermits,
		QueueLength:          stats.QueueLength,
		SystemLoad:           stats.SystemLoad,
		TasksByType:          stats.TasksByType,
		RegisteredProcessors: stats.RegisteredProcessors,
	})
}

type historyEntryOutput struct {
	TaskID      string     `json:"task_id"`
	Operation   string     `json:"operation"`
	Request     string     `json:"request"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// PrintHistory prints the journaled tasks in JSON format.
func (j *JSONPrinter) PrintHistory(entries []model.JournalEntry) error {
	output := make([]historyEntryOutput, 0, len(entries))
	for _, e := range entries {
		o := historyEntryOutput{
			TaskID:      e.TaskID,
			Operation:   string(e.Kind),
			Request:     e.Request,
			Status:      string(e.Status),
			Error:       e.Error,
			SubmittedAt: e.SubmittedAt.UTC(),
		}
		if e.ResolvedAt != nil {
			utcTime := e.ResolvedAt.UTC()
			o.ResolvedAt = &utcTime
		}
		output = append(output, o)
	}

	return j.encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
