package rotation

import (
	"log/slog"

	"github.com/jmckenna/chorewheel/internal/model"
)

// TallyResult is the outcome of miss accounting for one person.
type TallyResult struct {
	// Missed holds every due-class assignment the person did not complete.
	// The caller owes one dollar per entry.
	Missed []model.Assignment
	// Keep holds completed task names whose class is not due this cycle;
	// they carry forward onto the new assignment set.
	Keep []string
}

// Tally diffs a person's assignments against their completed set. Assignments
// of a due class are dropped regardless of completion (they get redistributed
// fresh); incomplete ones count as missed. Completed assignments of a non-due
// class are retained.
func Tally(assignments []model.Assignment, due map[model.Frequency]bool) TallyResult {
	var result TallyResult
	for _, a := range assignments {
		if !a.Frequency.Valid() {
			continue
		}
		if due[a.Frequency] {
			if !a.Completed {
				result.Missed = append(result.Missed, a)
			}
		} else if a.Completed {
			result.Keep = append(result.Keep, a.Task)
		}
	}
	return result
}

// MissedTasks returns the task names of the missed assignments, dropping any
// blank names. A blank name means the catalog or an earlier write was bad, so
// it is reported rather than silently swallowed.
func (r TallyResult) MissedTasks(logger *slog.Logger) []string {
	tasks := make([]string, 0, len(r.Missed))
	for _, a := range r.Missed {
		if a.Task == "" {
			if logger != nil {
				logger.Warn("missed assignment has empty task name", "assignment_id", a.ID, "person_id", a.PersonID)
			}
			continue
		}
		tasks = append(tasks, a.Task)
	}
	return tasks
}
