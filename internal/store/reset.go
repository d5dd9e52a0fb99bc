package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
)

// ErrConflict is returned when a reset commit loses the optimistic-concurrency
// race: another writer advanced a reset record's version between read and write.
var ErrConflict = errors.New("reset state modified concurrently")

type ResetStore struct {
	db *sql.DB
}

func NewResetStore(db *sql.DB) *ResetStore {
	return &ResetStore{db: db}
}

// Get returns the reset record for every frequency class.
func (s *ResetStore) Get() (map[model.Frequency]model.ResetRecord, error) {
	rows, err := s.db.Query(`SELECT frequency, last_reset, version FROM reset_state`)
	if err != nil {
		return nil, fmt.Errorf("get reset state: %w", err)
	}
	defer rows.Close()

	records := make(map[model.Frequency]model.ResetRecord)
	for rows.Next() {
		var r model.ResetRecord
		var lastReset sql.NullTime
		if err := rows.Scan(&r.Frequency, &lastReset, &r.Version); err != nil {
			return nil, fmt.Errorf("scan reset record: %w", err)
		}
		if lastReset.Valid {
			t := lastReset.Time
			r.LastReset = &t
		}
		records[r.Frequency] = r
	}
	return records, rows.Err()
}

// PersonUpdate carries the accounting result for one person into the commit.
type PersonUpdate struct {
	ID          int64
	DollarsOwed int
	Paid        bool
}

// StampUpdate advances one frequency's last-reset timestamp, guarded by the
// version read during CheckingDue.
type StampUpdate struct {
	Frequency       model.Frequency
	At              time.Time
	ExpectedVersion int64
}

// ResetCommit is the full write set of one reset: per-person balance updates,
// wholesale assignment replacement, and timestamp advances for the due classes
// only. Untouched classes keep their old timestamps (merge, not overwrite).
type ResetCommit struct {
	People      []PersonUpdate
	Assignments map[int64][]model.Assignment
	Stamps      []StampUpdate
}

// Commit applies the whole reset in a single transaction. Either everything
// lands or nothing does; a version mismatch on any stamp aborts with
// ErrConflict before any state is visible.
func (s *ResetStore) Commit(c ResetCommit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin reset tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, p := range c.People {
		owed := p.DollarsOwed
		if owed < 0 {
			owed = 0
		}
		if _, err := tx.Exec(
			`UPDATE people SET dollars_owed = ?, paid = ?, updated_at = ? WHERE id = ?`,
			owed, p.Paid, now, p.ID,
		); err != nil {
			return fmt.Errorf("update person %d: %w", p.ID, err)
		}
	}

	for personID, assignments := range c.Assignments {
		if _, err := tx.Exec(`DELETE FROM assignments WHERE person_id = ?`, personID); err != nil {
			return fmt.Errorf("clear assignments for %d: %w", personID, err)
		}
		for _, a := range assignments {
			if err := insertAssignmentTx(tx, a); err != nil {
				return fmt.Errorf("insert assignment %q: %w", a.Task, err)
			}
		}
	}

	for _, stamp := range c.Stamps {
		result, err := tx.Exec(
			`UPDATE reset_state SET last_reset = ?, version = version + 1 WHERE frequency = ? AND version = ?`,
			stamp.At.UTC(), stamp.Frequency, stamp.ExpectedVersion,
		)
		if err != nil {
			return fmt.Errorf("stamp %s: %w", stamp.Frequency, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("stamp %s rows: %w", stamp.Frequency, err)
		}
		if n == 0 {
			return ErrConflict
		}
	}

	return tx.Commit()
}
