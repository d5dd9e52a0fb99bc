package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
)

type LogStore struct {
	db *sql.DB
}

func NewLogStore(db *sql.DB) *LogStore {
	return &LogStore{db: db}
}

const logCols = `id, kind, person, task, from_name, to_name, amount, duration, reason, status, tasks, created_at`

func scanLogEntry(scanner interface{ Scan(...any) error }) (*model.LogEntry, error) {
	var e model.LogEntry
	var tasksJSON string
	err := scanner.Scan(
		&e.ID, &e.Kind, &e.Person, &e.Task, &e.From, &e.To,
		&e.Amount, &e.Duration, &e.Reason, &e.Status, &tasksJSON, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tasksJSON != "" && tasksJSON != "[]" {
		if err := json.Unmarshal([]byte(tasksJSON), &e.Tasks); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
	}
	return &e, nil
}

// Append writes one activity entry. Entries are append-only; callers that
// treat logging as best-effort wrap this in their own retry.
func (s *LogStore) Append(e model.LogEntry) error {
	tasksJSON := "[]"
	if len(e.Tasks) > 0 {
		data, err := json.Marshal(e.Tasks)
		if err != nil {
			return fmt.Errorf("encode tasks: %w", err)
		}
		tasksJSON = string(data)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO activity_log (kind, person, task, from_name, to_name, amount, duration, reason, status, tasks, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Kind, e.Person, e.Task, e.From, e.To, e.Amount, e.Duration, e.Reason, e.Status, tasksJSON, createdAt,
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// List returns the newest entries first, capped at limit.
func (s *LogStore) List(limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+logCols+` FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list log: %w", err)
	}
	defer rows.Close()
	return collectLogEntries(rows)
}

// ListSince returns entries at or after the given instant, newest first.
func (s *LogStore) ListSince(since time.Time) ([]model.LogEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+logCols+` FROM activity_log WHERE created_at >= ? ORDER BY created_at DESC, id DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list log since: %w", err)
	}
	defer rows.Close()
	return collectLogEntries(rows)
}

// ListSkippedSince returns the lowercased names of people with a day- or
// week-duration skip recorded since the given instant. They are exempt from
// miss accounting for the rest of the week.
func (s *LogStore) ListSkippedSince(since time.Time) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT LOWER(person) FROM activity_log
		 WHERE kind = ? AND duration IN ('day', 'week') AND created_at >= ?`,
		model.LogSkipped, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list skipped: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan skipped name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func collectLogEntries(rows *sql.Rows) ([]model.LogEntry, error) {
	var entries []model.LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteAll clears the activity log (rare admin bulk delete).
func (s *LogStore) DeleteAll() error {
	_, err := s.db.Exec(`DELETE FROM activity_log`)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return nil
}
