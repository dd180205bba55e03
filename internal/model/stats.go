package model

import "time"

// WorkerStats is a read only snapshot of the backend worker metrics.
// Every field is optional on the wire, missing ones are zero.
type WorkerStats struct {
	TotalTasksProcessed int64
	TasksSuccessful     int64
	TasksRejected       int64
	Uptime              time.Duration
	AvgProcessingTime   time.Duration
	StoredResults       int64

	ActiveEmitters       int64
	AvailablePermits     int64
	QueueLength          int64
	SystemLoad           float64
	TasksByType          map[string]int64
	RegisteredProcessors []string
}
