package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

const assignmentCols = `id, person_id, task, frequency, origin, original_owner, locked, completed, assigned_at`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	err := scanner.Scan(
		&a.ID, &a.PersonID, &a.Task, &a.Frequency, &a.Origin,
		&a.OriginalOwner, &a.Locked, &a.Completed, &a.AssignedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AssignmentStore) ListByPerson(personID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM assignments WHERE person_id = ? ORDER BY origin ASC, assigned_at ASC, task ASC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (s *AssignmentStore) ListAll() ([]model.Assignment, error) {
	rows, err := s.db.Query(`SELECT ` + assignmentCols + ` FROM assignments ORDER BY person_id ASC, assigned_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all assignments: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]model.Assignment, error) {
	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *AssignmentStore) GetByID(id string) (*model.Assignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// SetCompleted toggles completion state for one assignment instance.
func (s *AssignmentStore) SetCompleted(id string, completed bool) error {
	_, err := s.db.Exec(`UPDATE assignments SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	return nil
}

// CompletedTasks returns the task names a person has marked done, the shape
// the accountant compares against.
func (s *AssignmentStore) CompletedTasks(personID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT task FROM assignments WHERE person_id = ? AND completed = 1`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	defer rows.Close()

	var tasks []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan completed task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SetCompletedTasks overwrites a person's completion flags to exactly the
// given task names (admin "edit completed" path).
func (s *AssignmentStore) SetCompletedTasks(personID int64, tasks []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE assignments SET completed = 0 WHERE person_id = ?`, personID); err != nil {
		return fmt.Errorf("clear completed: %w", err)
	}
	for _, task := range tasks {
		if _, err := tx.Exec(
			`UPDATE assignments SET completed = 1 WHERE person_id = ? AND task = ?`,
			personID, task,
		); err != nil {
			return fmt.Errorf("mark completed %q: %w", task, err)
		}
	}
	return tx.Commit()
}

// Transfer moves an assignment from its owner to a helper: the helper gets a
// locked, completed copy crediting the original owner and a dollar off their
// balance (floored at zero); the owner loses the row.
func (s *AssignmentStore) Transfer(assignmentID string, fromPerson, toPerson *model.Person) error {
	a, err := s.GetByID(assignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("assignment %s not found", assignmentID)
	}
	if a.PersonID != fromPerson.ID {
		return fmt.Errorf("assignment %s not held by %s", assignmentID, fromPerson.Name)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE assignments SET person_id = ?, original_owner = ?, locked = 1, completed = 1 WHERE id = ?`,
		toPerson.ID, fromPerson.Name, assignmentID,
	); err != nil {
		return fmt.Errorf("transfer assignment: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE people SET dollars_owed = MAX(dollars_owed - 1, 0), updated_at = ? WHERE id = ?`,
		time.Now().UTC(), toPerson.ID,
	); err != nil {
		return fmt.Errorf("credit helper: %w", err)
	}
	return tx.Commit()
}

// insertAssignmentTx inserts one assignment row inside an existing transaction.
// Used by the reset commit.
func insertAssignmentTx(tx *sql.Tx, a model.Assignment) error {
	_, err := tx.Exec(
		`INSERT INTO assignments (id, person_id, task, frequency, origin, original_owner, locked, completed, assigned_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PersonID, a.Task, a.Frequency, a.Origin, a.OriginalOwner, a.Locked, a.Completed, a.AssignedAt,
	)
	return err
}
