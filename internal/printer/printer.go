package printer

import "github.com/g3a/htpclient/internal/model"

// Printer knows how to print task information in different formats.
type Printer interface {
	PrintResult(taskID string, result model.Result) error
	PrintTaskStatus(snap model.TaskSnapshot) error
	PrintStats(stats model.WorkerStats) error
	PrintHistory(entries []model.JournalEntry) error
	PrintMessage(msg string) error
}
