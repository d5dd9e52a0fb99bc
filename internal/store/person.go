package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
)

type PersonStore struct {
	db *sql.DB
}

func NewPersonStore(db *sql.DB) *PersonStore {
	return &PersonStore{db: db}
}

const personCols = `id, name, color, phone, carrier, dollars_owed, paid, sort_order, created_at, updated_at`

func scanPerson(scanner interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Color, &p.Phone, &p.Carrier,
		&p.DollarsOwed, &p.Paid, &p.SortOrder,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PersonStore) List() ([]model.Person, error) {
	rows, err := s.db.Query(`SELECT ` + personCols + ` FROM people ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

func (s *PersonStore) GetByID(id int64) (*model.Person, error) {
	row := s.db.QueryRow(`SELECT `+personCols+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

// GetByName matches case-insensitively, the way the permanent-chore map keys
// are matched against people.
func (s *PersonStore) GetByName(name string) (*model.Person, error) {
	row := s.db.QueryRow(`SELECT `+personCols+` FROM people WHERE name = ? COLLATE NOCASE`, name)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person by name: %w", err)
	}
	return p, nil
}

func (s *PersonStore) Create(name, color, phone, carrier string, sortOrder int) (*model.Person, error) {
	result, err := s.db.Exec(
		`INSERT INTO people (name, color, phone, carrier, sort_order) VALUES (?, ?, ?, ?, ?)`,
		name, color, phone, carrier, sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PersonStore) Update(id int64, name, color, phone, carrier string, sortOrder int) (*model.Person, error) {
	_, err := s.db.Exec(
		`UPDATE people SET name = ?, color = ?, phone = ?, carrier = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		name, color, phone, carrier, sortOrder, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update person: %w", err)
	}
	return s.GetByID(id)
}

// SetOwed overwrites the owed amount. Paid is derived: a zero balance counts as
// paid, anything else as unpaid.
func (s *PersonStore) SetOwed(id int64, amount int) error {
	if amount < 0 {
		amount = 0
	}
	_, err := s.db.Exec(
		`UPDATE people SET dollars_owed = ?, paid = ?, updated_at = ? WHERE id = ?`,
		amount, amount == 0, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set owed: %w", err)
	}
	return nil
}

// AdjustOwed adds delta to the owed amount, flooring at zero.
func (s *PersonStore) AdjustOwed(id int64, delta int) error {
	_, err := s.db.Exec(
		`UPDATE people SET dollars_owed = MAX(dollars_owed + ?, 0), updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("adjust owed: %w", err)
	}
	return nil
}

func (s *PersonStore) SetPaid(id int64, paid bool) error {
	_, err := s.db.Exec(
		`UPDATE people SET paid = ?, updated_at = ? WHERE id = ?`,
		paid, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set paid: %w", err)
	}
	return nil
}

func (s *PersonStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}

func (s *PersonStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM people`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return n, nil
}
