package model

import "time"

// LogKind is the event type of an activity log entry.
type LogKind string

const (
	LogCompleted      LogKind = "completed"
	LogTransferred    LogKind = "transferred"
	LogSkipped        LogKind = "skipped"
	LogReassigned     LogKind = "reassigned"
	LogMissedChores   LogKind = "missedChores"
	LogTogglePaid     LogKind = "togglePaid"
	LogManualReset    LogKind = "manualReset"
	LogSandbox        LogKind = "sandbox"
	LogWeeklySnapshot LogKind = "weeklySnapshot"
)

// LogEntry is one append-only activity record. Entries are never mutated after
// creation.
type LogEntry struct {
	ID        int64     `json:"id"`
	Kind      LogKind   `json:"kind"`
	Person    string    `json:"person,omitempty"`
	Task      string    `json:"task,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status,omitempty"`
	Tasks     []string  `json:"tasks,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
