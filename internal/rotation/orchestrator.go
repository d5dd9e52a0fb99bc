package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/store"
)

// Result summarizes one orchestrator run.
type Result struct {
	Due        []model.Frequency `json:"due"`
	Missed     map[string]int    `json:"missed"`
	Reassigned int               `json:"reassigned"`
	Skipped    bool              `json:"skipped"`
}

// Orchestrator runs the full reset cycle: gate check, miss accounting, pool
// repartition, and one atomic persistence batch.
type Orchestrator struct {
	people      *store.PersonStore
	chores      *store.ChoreStore
	assignments *store.AssignmentStore
	resets      *store.ResetStore
	logs        *store.LogStore
	partitioner *Partitioner
	logger      *slog.Logger
	now         func() time.Time
}

func NewOrchestrator(
	people *store.PersonStore,
	chores *store.ChoreStore,
	assignments *store.AssignmentStore,
	resets *store.ResetStore,
	logs *store.LogStore,
	partitioner *Partitioner,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		people:      people,
		chores:      chores,
		assignments: assignments,
		resets:      resets,
		logs:        logs,
		partitioner: partitioner,
		logger:      logger,
		now:         time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (o *Orchestrator) SetNow(now func() time.Time) {
	o.now = now
}

// Run performs a scheduled reset: evaluates which classes are due and, if any,
// tallies misses, redistributes the whole rotating pool, and commits. When
// nothing is due it returns early without writing.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	now := o.now()

	records, err := o.resets.Get()
	if err != nil {
		return nil, fmt.Errorf("read reset state: %w", err)
	}
	due := DueSet(records, now)
	if !AnyDue(due) {
		o.logger.Info("no resets due")
		return &Result{Skipped: true, Missed: map[string]int{}}, nil
	}

	return o.reset(ctx, records, due, now, model.LogReassigned, false)
}

// ManualReset forces a full reset regardless of the schedule gate: every class
// is treated as due, misses are tallied, and the pool is redistributed.
func (o *Orchestrator) ManualReset(ctx context.Context) (*Result, error) {
	now := o.now()

	records, err := o.resets.Get()
	if err != nil {
		return nil, fmt.Errorf("read reset state: %w", err)
	}
	due := make(map[model.Frequency]bool, len(model.Frequencies))
	for _, freq := range model.Frequencies {
		due[freq] = true
	}

	return o.reset(ctx, records, due, now, model.LogManualReset, false)
}

// ResetAll wipes all progress: balances to zero, completions cleared, the
// whole pool redistributed. No miss accounting.
func (o *Orchestrator) ResetAll(ctx context.Context) (*Result, error) {
	now := o.now()

	records, err := o.resets.Get()
	if err != nil {
		return nil, fmt.Errorf("read reset state: %w", err)
	}
	due := make(map[model.Frequency]bool, len(model.Frequencies))
	for _, freq := range model.Frequencies {
		due[freq] = true
	}

	return o.reset(ctx, records, due, now, model.LogManualReset, true)
}

// PreviewResult describes what a reset would do without writing anything.
type PreviewResult struct {
	Due    []model.Frequency   `json:"due"`
	Missed map[string][]string `json:"missed"`
}

// Preview evaluates the gate and miss accounting read-only, so the admin panel
// can show what the next reset will charge before it runs.
func (o *Orchestrator) Preview(ctx context.Context) (*PreviewResult, error) {
	now := o.now()

	records, err := o.resets.Get()
	if err != nil {
		return nil, fmt.Errorf("read reset state: %w", err)
	}
	due := DueSet(records, now)

	people, err := o.people.List()
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}

	skipped, err := o.logs.ListSkippedSince(StartOfWeek(now))
	if err != nil {
		o.logger.Warn("read skip log failed", "error", err)
		skipped = nil
	}
	skipSet := make(map[string]bool, len(skipped))
	for _, name := range skipped {
		skipSet[name] = true
	}

	preview := &PreviewResult{Missed: map[string][]string{}}
	for _, freq := range model.Frequencies {
		if due[freq] {
			preview.Due = append(preview.Due, freq)
		}
	}

	for _, person := range people {
		if skipSet[strings.ToLower(person.Name)] {
			continue
		}
		assignments, err := o.assignments.ListByPerson(person.ID)
		if err != nil {
			return nil, fmt.Errorf("list assignments for %s: %w", person.Name, err)
		}
		tally := Tally(assignments, due)
		if len(tally.Missed) > 0 {
			preview.Missed[person.Name] = tally.MissedTasks(o.logger)
		}
	}
	return preview, nil
}

func (o *Orchestrator) reset(ctx context.Context, records map[model.Frequency]model.ResetRecord, due map[model.Frequency]bool, now time.Time, logKind model.LogKind, wipe bool) (*Result, error) {
	people, err := o.people.List()
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	if len(people) == 0 {
		o.logger.Warn("no people configured, nothing to reset")
		return &Result{Skipped: true, Missed: map[string]int{}}, nil
	}

	skipped, err := o.logs.ListSkippedSince(StartOfWeek(now))
	if err != nil {
		// Skip exemptions are a courtesy; a read failure should not block
		// the reset itself.
		o.logger.Warn("read skip log failed", "error", err)
		skipped = nil
	}
	skipSet := make(map[string]bool, len(skipped))
	for _, name := range skipped {
		skipSet[name] = true
	}

	// Accounting: tally misses and collect carried-forward completions
	// before anything is reassigned.
	result := &Result{Missed: map[string]int{}}
	updates := make([]store.PersonUpdate, 0, len(people))
	keepByPerson := make(map[int64]map[string]bool, len(people))

	for _, person := range people {
		assignments, err := o.assignments.ListByPerson(person.ID)
		if err != nil {
			return nil, fmt.Errorf("list assignments for %s: %w", person.Name, err)
		}

		tally := Tally(assignments, due)
		keep := make(map[string]bool, len(tally.Keep))
		for _, task := range tally.Keep {
			keep[task] = true
		}
		keepByPerson[person.ID] = keep

		owed := person.DollarsOwed
		paid := person.Paid
		if wipe {
			owed = 0
			paid = false
		} else if len(tally.Missed) > 0 && !skipSet[strings.ToLower(person.Name)] {
			owed += len(tally.Missed)
			paid = false
			result.Missed[person.Name] = len(tally.Missed)

			o.appendLog(ctx, model.LogEntry{
				Kind:   model.LogMissedChores,
				Person: person.Name,
				Amount: len(tally.Missed),
				Tasks:  tally.MissedTasks(o.logger),
			})
		}
		updates = append(updates, store.PersonUpdate{ID: person.ID, DollarsOwed: owed, Paid: paid})
	}

	// Partitioning: any due class triggers a full redistribution of the
	// entire rotating pool, never a per-class partial reassign.
	rotating, err := o.chores.ListRotating()
	if err != nil {
		return nil, fmt.Errorf("list rotating pool: %w", err)
	}
	personIDs := make([]int64, len(people))
	for i, p := range people {
		personIDs[i] = p.ID
	}
	partition := o.partitioner.Partition(rotating, personIDs, now)

	newAssignments := make(map[int64][]model.Assignment, len(people))
	for _, person := range people {
		keep := keepByPerson[person.ID]
		if wipe {
			keep = nil
		}

		permanent, err := o.chores.ListPermanentFor(person.Name)
		if err != nil {
			return nil, fmt.Errorf("list permanent chores for %s: %w", person.Name, err)
		}

		list := make([]model.Assignment, 0, len(permanent)+len(partition[person.ID]))
		for _, def := range permanent {
			list = append(list, model.Assignment{
				ID:         o.partitioner.newID(),
				PersonID:   person.ID,
				Task:       def.Task,
				Frequency:  def.Frequency,
				Origin:     model.OriginPermanent,
				Completed:  keep[def.Task],
				AssignedAt: now,
			})
		}
		for _, a := range partition[person.ID] {
			a.Completed = keep[a.Task]
			list = append(list, a)
			result.Reassigned++
		}
		newAssignments[person.ID] = list
	}

	// Persisting: one atomic batch, stamping only the due classes so the
	// untouched ones keep their old timestamps.
	commit := store.ResetCommit{
		People:      updates,
		Assignments: newAssignments,
	}
	for _, freq := range model.Frequencies {
		if due[freq] {
			result.Due = append(result.Due, freq)
			commit.Stamps = append(commit.Stamps, store.StampUpdate{
				Frequency:       freq,
				At:              now,
				ExpectedVersion: records[freq].Version,
			})
		}
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := o.resets.Commit(commit)
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrConflict) {
			// Another reset won the race; retrying would clobber it.
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("persist reset: %w", err)
	}

	o.appendLog(ctx, model.LogEntry{Kind: logKind})
	o.logger.Info("reset completed",
		"due", result.Due,
		"reassigned", result.Reassigned,
		"people_missed", len(result.Missed),
	)
	return result, nil
}

// appendLog writes an activity entry with bounded retry. Log failures never
// abort the reset.
func (o *Orchestrator) appendLog(ctx context.Context, entry model.LogEntry) {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := o.logs.Append(entry); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		o.logger.Warn("append activity log failed", "kind", entry.Kind, "error", err)
	}
}

