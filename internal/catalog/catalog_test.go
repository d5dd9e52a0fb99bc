package catalog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmckenna/chorewheel/internal/database"
	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/store"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

const validCatalog = `{
  "people": [
    {"name": "Avery", "color": "#fca5a5", "phone": "5551234567", "carrier": "verizon"},
    {"name": "Jordan", "color": "#93c5fd"}
  ],
  "chores": {
    "permanent": {
      "Avery": [{"task": "Feed the dog", "frequency": "daily"}]
    },
    "rotating": [
      {"task": "Dishes", "frequency": "daily"},
      {"task": "Vacuum", "frequency": "weekly"}
    ]
  }
}`

func TestLoad(t *testing.T) {
	c, err := Load(writeCatalog(t, validCatalog))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.People) != 2 {
		t.Errorf("people = %d, want 2", len(c.People))
	}
	if len(c.Chores.Rotating) != 2 {
		t.Errorf("rotating = %d, want 2", len(c.Chores.Rotating))
	}
	if len(c.Chores.Permanent["Avery"]) != 1 {
		t.Errorf("permanent for Avery = %v", c.Chores.Permanent["Avery"])
	}
}

func TestLoadRejectsUnknownFrequency(t *testing.T) {
	bad := `{"people":[{"name":"Avery"}],"chores":{"rotating":[{"task":"Dishes","frequency":"hourly"}]}}`
	if _, err := Load(writeCatalog(t, bad)); err == nil {
		t.Fatal("expected error for unknown frequency")
	}
}

func TestLoadRejectsUnknownPermanentOwner(t *testing.T) {
	bad := `{"people":[{"name":"Avery"}],"chores":{"permanent":{"Ghost":[{"task":"Dust","frequency":"weekly"}]}}}`
	if _, err := Load(writeCatalog(t, bad)); err == nil {
		t.Fatal("expected error for unknown permanent owner")
	}
}

func TestLoadRejectsDuplicatePeople(t *testing.T) {
	bad := `{"people":[{"name":"Avery"},{"name":"avery"}],"chores":{}}`
	if _, err := Load(writeCatalog(t, bad)); err == nil {
		t.Fatal("expected error for duplicate person")
	}
}

func TestSeed(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	people := store.NewPersonStore(db)
	chores := store.NewChoreStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := Load(writeCatalog(t, validCatalog))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := Seed(c, people, chores, logger); err != nil {
		t.Fatalf("seed: %v", err)
	}

	list, _ := people.List()
	if len(list) != 2 {
		t.Fatalf("people after seed = %d, want 2", len(list))
	}
	rotating, _ := chores.ListRotating()
	if len(rotating) != 2 {
		t.Errorf("rotating after seed = %d, want 2", len(rotating))
	}
	permanent, _ := chores.ListPermanentFor("Avery")
	if len(permanent) != 1 || permanent[0].Frequency != model.FreqDaily {
		t.Errorf("permanent after seed = %+v", permanent)
	}

	// Re-seeding a populated database keeps live progress.
	avery, _ := people.GetByName("Avery")
	people.SetOwed(avery.ID, 3)

	if err := Seed(c, people, chores, logger); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	list, _ = people.List()
	if len(list) != 2 {
		t.Errorf("people after re-seed = %d, want 2", len(list))
	}
	avery, _ = people.GetByName("Avery")
	if avery.DollarsOwed != 3 {
		t.Errorf("owed = %d after re-seed, want 3", avery.DollarsOwed)
	}
}

func TestSeedRefreshesIdentityFields(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	people := store.NewPersonStore(db)
	chores := store.NewChoreStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := Load(writeCatalog(t, validCatalog))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Seed(c, people, chores, logger); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Drift the stored identity, then re-seed; the catalog wins for
	// identity fields while progress is preserved.
	avery, _ := people.GetByName("Avery")
	people.Update(avery.ID, avery.Name, "#000000", "999", "att", avery.SortOrder)
	people.SetOwed(avery.ID, 2)

	if err := Seed(c, people, chores, logger); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	avery, _ = people.GetByName("Avery")
	if avery.Phone != "5551234567" || avery.Carrier != "verizon" || avery.Color != "#fca5a5" {
		t.Errorf("identity not refreshed: %+v", avery)
	}
	if avery.DollarsOwed != 2 {
		t.Errorf("owed = %d, want 2", avery.DollarsOwed)
	}
}
