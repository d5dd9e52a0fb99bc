package store

import (
	"database/sql"
	"fmt"

	"github.com/jmckenna/chorewheel/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

const choreDefCols = `id, task, frequency, origin, permanent_owner, created_at`

func scanChoreDef(scanner interface{ Scan(...any) error }) (*model.ChoreDef, error) {
	var c model.ChoreDef
	err := scanner.Scan(&c.ID, &c.Task, &c.Frequency, &c.Origin, &c.PermanentOwner, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChoreStore) List() ([]model.ChoreDef, error) {
	rows, err := s.db.Query(`SELECT ` + choreDefCols + ` FROM chore_defs ORDER BY origin ASC, frequency ASC, task ASC`)
	if err != nil {
		return nil, fmt.Errorf("list chore defs: %w", err)
	}
	defer rows.Close()
	return collectChoreDefs(rows)
}

// ListRotating returns the full rotating pool fed to the partitioner.
func (s *ChoreStore) ListRotating() ([]model.ChoreDef, error) {
	rows, err := s.db.Query(
		`SELECT `+choreDefCols+` FROM chore_defs WHERE origin = ? ORDER BY task ASC`,
		model.OriginRotating,
	)
	if err != nil {
		return nil, fmt.Errorf("list rotating chores: %w", err)
	}
	defer rows.Close()
	return collectChoreDefs(rows)
}

// ListPermanentFor returns the permanent chores bound to a person, matched
// case-insensitively by name.
func (s *ChoreStore) ListPermanentFor(personName string) ([]model.ChoreDef, error) {
	rows, err := s.db.Query(
		`SELECT `+choreDefCols+` FROM chore_defs WHERE origin = ? AND permanent_owner = ? COLLATE NOCASE ORDER BY task ASC`,
		model.OriginPermanent, personName,
	)
	if err != nil {
		return nil, fmt.Errorf("list permanent chores: %w", err)
	}
	defer rows.Close()
	return collectChoreDefs(rows)
}

func collectChoreDefs(rows *sql.Rows) ([]model.ChoreDef, error) {
	var defs []model.ChoreDef
	for rows.Next() {
		c, err := scanChoreDef(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore def: %w", err)
		}
		defs = append(defs, *c)
	}
	return defs, rows.Err()
}

func (s *ChoreStore) Create(task string, freq model.Frequency, origin model.Origin, permanentOwner string) (*model.ChoreDef, error) {
	if !freq.Valid() {
		return nil, fmt.Errorf("invalid frequency %q", freq)
	}
	result, err := s.db.Exec(
		`INSERT INTO chore_defs (task, frequency, origin, permanent_owner) VALUES (?, ?, ?, ?)`,
		task, freq, origin, permanentOwner,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore def: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+choreDefCols+` FROM chore_defs WHERE id = ?`, id)
	return scanChoreDef(row)
}

func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chore_defs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore def: %w", err)
	}
	return nil
}

func (s *ChoreStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chore_defs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chore defs: %w", err)
	}
	return n, nil
}
