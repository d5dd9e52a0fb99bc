package store

import (
	"database/sql"
	"fmt"
)

// NotifyStore records which scheduled notifications and resets already ran,
// so a second invocation within the same day short-circuits.
type NotifyStore struct {
	db *sql.DB
}

func NewNotifyStore(db *sql.DB) *NotifyStore {
	return &NotifyStore{db: db}
}

func (s *NotifyStore) WasSent(kind, refID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notify_log WHERE kind = ? AND ref_id = ?`,
		kind, refID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check sent: %w", err)
	}
	return n > 0, nil
}

func (s *NotifyStore) RecordSent(kind, refID string) error {
	_, err := s.db.Exec(
		`INSERT INTO notify_log (kind, ref_id) VALUES (?, ?)
		 ON CONFLICT(kind, ref_id) DO NOTHING`,
		kind, refID,
	)
	if err != nil {
		return fmt.Errorf("record sent: %w", err)
	}
	return nil
}
