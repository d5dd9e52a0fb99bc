// Package catalog loads the household template file: the people and the
// chore definitions the rotation draws from. The file seeds an empty
// database; live progress (balances, completions, assignments) always comes
// from the store afterward.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/store"
)

// Chore is one catalog entry.
type Chore struct {
	Task      string          `json:"task"`
	Frequency model.Frequency `json:"frequency"`
}

// Person is one household member template.
type Person struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Phone   string `json:"phone"`
	Carrier string `json:"carrier"`
}

// Catalog is the parsed template file.
type Catalog struct {
	People []Person `json:"people"`
	Chores struct {
		Permanent map[string][]Chore `json:"permanent"`
		Rotating  []Chore            `json:"rotating"`
	} `json:"chores"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.People))
	for _, p := range c.People {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("catalog person with empty name")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("duplicate person %q in catalog", p.Name)
		}
		seen[key] = true
	}

	check := func(ch Chore, where string) error {
		if strings.TrimSpace(ch.Task) == "" {
			return fmt.Errorf("%s chore with empty task", where)
		}
		if !ch.Frequency.Valid() {
			return fmt.Errorf("chore %q has unknown frequency %q", ch.Task, ch.Frequency)
		}
		return nil
	}

	for owner, chores := range c.Chores.Permanent {
		if !seen[strings.ToLower(owner)] {
			return fmt.Errorf("permanent chores reference unknown person %q", owner)
		}
		for _, ch := range chores {
			if err := check(ch, "permanent"); err != nil {
				return err
			}
		}
	}
	for _, ch := range c.Chores.Rotating {
		if err := check(ch, "rotating"); err != nil {
			return err
		}
	}
	return nil
}

// Seed inserts the catalog's people and chore definitions when the database
// is empty. A populated database keeps all progress state (balances,
// completions, assignments); only identity fields are refreshed from the
// catalog, which stays the source of truth for who is in the household.
func Seed(c *Catalog, people *store.PersonStore, chores *store.ChoreStore, logger *slog.Logger) error {
	peopleCount, err := people.Count()
	if err != nil {
		return fmt.Errorf("count people: %w", err)
	}
	choreCount, err := chores.Count()
	if err != nil {
		return fmt.Errorf("count chores: %w", err)
	}
	if peopleCount > 0 || choreCount > 0 {
		logger.Info("database already seeded", "people", peopleCount, "chores", choreCount)
		return syncIdentity(c, people, logger)
	}

	for i, p := range c.People {
		if _, err := people.Create(strings.TrimSpace(p.Name), p.Color, p.Phone, p.Carrier, i); err != nil {
			return fmt.Errorf("seed person %q: %w", p.Name, err)
		}
	}

	for owner, list := range c.Chores.Permanent {
		for _, ch := range list {
			if _, err := chores.Create(ch.Task, ch.Frequency, model.OriginPermanent, owner); err != nil {
				return fmt.Errorf("seed permanent chore %q: %w", ch.Task, err)
			}
		}
	}
	for _, ch := range c.Chores.Rotating {
		if _, err := chores.Create(ch.Task, ch.Frequency, model.OriginRotating, ""); err != nil {
			return fmt.Errorf("seed rotating chore %q: %w", ch.Task, err)
		}
	}

	logger.Info("seeded catalog", "people", len(c.People), "rotating", len(c.Chores.Rotating))
	return nil
}

// syncIdentity copies color/phone/carrier from the catalog onto existing
// people matched by name. People added through the admin panel are untouched.
func syncIdentity(c *Catalog, people *store.PersonStore, logger *slog.Logger) error {
	for _, p := range c.People {
		existing, err := people.GetByName(strings.TrimSpace(p.Name))
		if err != nil {
			return fmt.Errorf("look up person %q: %w", p.Name, err)
		}
		if existing == nil {
			continue
		}
		if existing.Color == p.Color && existing.Phone == p.Phone && existing.Carrier == p.Carrier {
			continue
		}
		if _, err := people.Update(existing.ID, existing.Name, p.Color, p.Phone, p.Carrier, existing.SortOrder); err != nil {
			return fmt.Errorf("sync person %q: %w", p.Name, err)
		}
		logger.Info("refreshed identity from catalog", "person", existing.Name)
	}
	return nil
}
