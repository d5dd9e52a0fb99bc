package rotation

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jmckenna/chorewheel/internal/model"
)

func assignment(task string, freq model.Frequency, completed bool) model.Assignment {
	return model.Assignment{Task: task, Frequency: freq, Completed: completed}
}

func TestTally(t *testing.T) {
	dailyDue := map[model.Frequency]bool{model.FreqDaily: true}

	assignments := []model.Assignment{
		assignment("Dishes", model.FreqDaily, false),       // due, incomplete: missed
		assignment("Trash", model.FreqDaily, true),         // due, completed: dropped either way
		assignment("Vacuum", model.FreqWeekly, true),       // not due, completed: kept
		assignment("Clean fridge", model.FreqMonthly, false), // not due, incomplete: neither
	}

	result := Tally(assignments, dailyDue)

	if len(result.Missed) != 1 || result.Missed[0].Task != "Dishes" {
		t.Errorf("missed = %+v, want only Dishes", result.Missed)
	}
	if len(result.Keep) != 1 || result.Keep[0] != "Vacuum" {
		t.Errorf("keep = %v, want only Vacuum", result.Keep)
	}
}

func TestTallyAllDue(t *testing.T) {
	allDue := make(map[model.Frequency]bool)
	for _, f := range model.Frequencies {
		allDue[f] = true
	}

	assignments := []model.Assignment{
		assignment("Dishes", model.FreqDaily, false),
		assignment("Vacuum", model.FreqWeekly, false),
		assignment("Dust", model.FreqBiweekly, true),
	}

	result := Tally(assignments, allDue)
	if len(result.Missed) != 2 {
		t.Errorf("missed count = %d, want 2", len(result.Missed))
	}
	// Everything is due, so nothing carries forward.
	if len(result.Keep) != 0 {
		t.Errorf("keep = %v, want empty", result.Keep)
	}
}

func TestTallyNothingDue(t *testing.T) {
	assignments := []model.Assignment{
		assignment("Dishes", model.FreqDaily, false),
		assignment("Vacuum", model.FreqWeekly, true),
	}

	result := Tally(assignments, map[model.Frequency]bool{})
	if len(result.Missed) != 0 {
		t.Errorf("missed = %+v, want none", result.Missed)
	}
	if len(result.Keep) != 1 || result.Keep[0] != "Vacuum" {
		t.Errorf("keep = %v", result.Keep)
	}
}

func TestMissedTasksDropsBlankNames(t *testing.T) {
	result := TallyResult{
		Missed: []model.Assignment{
			assignment("Dishes", model.FreqDaily, false),
			assignment("", model.FreqDaily, false),
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tasks := result.MissedTasks(logger)
	if len(tasks) != 1 || tasks[0] != "Dishes" {
		t.Errorf("tasks = %v, want [Dishes]", tasks)
	}
}
