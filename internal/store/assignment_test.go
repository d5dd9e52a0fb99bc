package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jmckenna/chorewheel/internal/model"
)

func seedAssignment(t *testing.T, db *sql.DB, personID int64, task string, freq model.Frequency, completed bool) model.Assignment {
	t.Helper()
	a := model.Assignment{
		ID:         uuid.NewString(),
		PersonID:   personID,
		Task:       task,
		Frequency:  freq,
		Origin:     model.OriginRotating,
		Completed:  completed,
		AssignedAt: time.Now().UTC(),
	}
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := insertAssignmentTx(tx, a); err != nil {
		t.Fatalf("insert assignment: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return a
}

func TestAssignmentCompletion(t *testing.T) {
	db := newTestDB(t)
	ps := NewPersonStore(db)
	as := NewAssignmentStore(db)

	person, err := ps.Create("Avery", "", "", "", 0)
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	a := seedAssignment(t, db, person.ID, "Dishes", model.FreqDaily, false)

	if err := as.SetCompleted(a.ID, true); err != nil {
		t.Fatalf("set completed: %v", err)
	}
	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Completed {
		t.Error("completed = false, want true")
	}

	tasks, err := as.CompletedTasks(person.ID)
	if err != nil {
		t.Fatalf("completed tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0] != "Dishes" {
		t.Errorf("completed tasks = %v", tasks)
	}
}

func TestAssignmentSetCompletedTasks(t *testing.T) {
	db := newTestDB(t)
	ps := NewPersonStore(db)
	as := NewAssignmentStore(db)

	person, _ := ps.Create("Jordan", "", "", "", 0)
	seedAssignment(t, db, person.ID, "Dishes", model.FreqDaily, true)
	seedAssignment(t, db, person.ID, "Vacuum", model.FreqWeekly, false)
	seedAssignment(t, db, person.ID, "Dust", model.FreqBiweekly, true)

	if err := as.SetCompletedTasks(person.ID, []string{"Vacuum"}); err != nil {
		t.Fatalf("set completed tasks: %v", err)
	}

	tasks, err := as.CompletedTasks(person.ID)
	if err != nil {
		t.Fatalf("completed tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0] != "Vacuum" {
		t.Errorf("completed tasks = %v, want [Vacuum]", tasks)
	}
}

func TestAssignmentListAll(t *testing.T) {
	db := newTestDB(t)
	ps := NewPersonStore(db)
	as := NewAssignmentStore(db)

	avery, _ := ps.Create("Avery", "", "", "", 0)
	jordan, _ := ps.Create("Jordan", "", "", "", 1)
	seedAssignment(t, db, avery.ID, "Dishes", model.FreqDaily, false)
	seedAssignment(t, db, jordan.ID, "Vacuum", model.FreqWeekly, true)

	all, err := as.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}

	var open int
	tasks := make(map[string]bool, len(all))
	for _, a := range all {
		tasks[a.Task] = true
		if !a.Completed {
			open++
		}
	}
	if !tasks["Dishes"] || !tasks["Vacuum"] {
		t.Errorf("tasks = %v, want both households' chores", tasks)
	}
	if open != 1 {
		t.Errorf("open = %d, want 1", open)
	}
}

func TestAssignmentTransfer(t *testing.T) {
	db := newTestDB(t)
	ps := NewPersonStore(db)
	as := NewAssignmentStore(db)

	from, _ := ps.Create("Avery", "", "", "", 0)
	to, _ := ps.Create("Jordan", "", "", "", 1)
	if err := ps.SetOwed(to.ID, 2); err != nil {
		t.Fatalf("set owed: %v", err)
	}
	to, _ = ps.GetByID(to.ID)

	a := seedAssignment(t, db, from.ID, "Mop kitchen", model.FreqWeekly, false)

	if err := as.Transfer(a.ID, from, to); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	got, _ := as.GetByID(a.ID)
	if got.PersonID != to.ID {
		t.Errorf("person_id = %d, want %d", got.PersonID, to.ID)
	}
	if !got.Locked || !got.Completed {
		t.Errorf("locked=%v completed=%v, want both true", got.Locked, got.Completed)
	}
	if got.OriginalOwner != "Avery" {
		t.Errorf("original_owner = %q, want Avery", got.OriginalOwner)
	}

	helper, _ := ps.GetByID(to.ID)
	if helper.DollarsOwed != 1 {
		t.Errorf("helper owed = %d, want 1", helper.DollarsOwed)
	}

	// Credit floors at zero.
	b := seedAssignment(t, db, from.ID, "Clean bathroom", model.FreqWeekly, false)
	c := seedAssignment(t, db, from.ID, "Dust shelves", model.FreqBiweekly, false)
	if err := as.Transfer(b.ID, from, helper); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	helper, _ = ps.GetByID(to.ID)
	if err := as.Transfer(c.ID, from, helper); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	helper, _ = ps.GetByID(to.ID)
	if helper.DollarsOwed != 0 {
		t.Errorf("helper owed = %d, want 0", helper.DollarsOwed)
	}
}

func TestAssignmentTransferWrongOwner(t *testing.T) {
	db := newTestDB(t)
	ps := NewPersonStore(db)
	as := NewAssignmentStore(db)

	owner, _ := ps.Create("Avery", "", "", "", 0)
	other, _ := ps.Create("Jordan", "", "", "", 1)
	a := seedAssignment(t, db, owner.ID, "Dishes", model.FreqDaily, false)

	if err := as.Transfer(a.ID, other, owner); err == nil {
		t.Fatal("expected error when from person does not hold the assignment")
	}
}
