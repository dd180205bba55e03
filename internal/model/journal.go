package model

import "time"

// JournalEntry is the local record of a submitted task. Results are never
// journaled, only how the task ended for this client.
type JournalEntry struct {
	TaskID string
	Kind   OperationKind
	// Request is the submitted path and query relative to the async API base URL.
	Request     string
	Status      TaskStatus
	Error       string
	SubmittedAt time.Time
	ResolvedAt  *time.Time
}

// IsResolved returns true once the client saw the task outcome or gave up on it.
func (e JournalEntry) IsResolved() bool {
	return e.ResolvedAt != nil
}
