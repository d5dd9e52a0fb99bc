package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/push"
	"github.com/jmckenna/chorewheel/internal/rotation"
	"github.com/jmckenna/chorewheel/internal/sms"
	"github.com/jmckenna/chorewheel/internal/store"
)

const (
	notifyKindReset   = "reset"
	notifyKindSMS     = "sms"
	notifyKindWebPush = "webpush"
	notifyKindSandbox = "sandbox"
	reminderHour      = 8
	defaultTickEvery  = time.Minute
)

// Scheduler drives the time-based work: the midnight chore reset and the
// morning reminder send. Both are idempotent per calendar day via the notify
// log, so a tick can safely re-run after a failure.
type Scheduler struct {
	mu           sync.RWMutex
	orchestrator *rotation.Orchestrator
	people       *store.PersonStore
	assignments  *store.AssignmentStore
	logs         *store.LogStore
	settings     *store.SettingsStore
	notify       *store.NotifyStore
	pushStore    *store.PushStore
	gateway      *sms.Gateway
	pushService  *push.Service
	location     *time.Location
	interval     time.Duration
	logger       *slog.Logger
	now          func() time.Time
	cancel       context.CancelFunc
	done         chan struct{}
}

func New(
	orchestrator *rotation.Orchestrator,
	people *store.PersonStore,
	assignments *store.AssignmentStore,
	logs *store.LogStore,
	settings *store.SettingsStore,
	notify *store.NotifyStore,
	pushStore *store.PushStore,
	gateway *sms.Gateway,
	pushService *push.Service,
	location *time.Location,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		people:       people,
		assignments:  assignments,
		logs:         logs,
		settings:     settings,
		notify:       notify,
		pushStore:    pushStore,
		gateway:      gateway,
		pushService:  pushService,
		location:     location,
		interval:     defaultTickEvery,
		logger:       logger,
		now:          time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Tick runs one scheduler pass. Exported so a manual trigger can reuse it.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now().In(s.location)

	s.checkReset(ctx, now)
	if now.Hour() >= reminderHour {
		s.sendReminders(ctx, now)
	}
}

// checkReset runs the reset orchestrator once per calendar day. A failed run
// is not recorded, so the next tick retries it.
func (s *Scheduler) checkReset(ctx context.Context, now time.Time) {
	refID := now.Format("2006-01-02")

	sent, err := s.notify.WasSent(notifyKindReset, refID)
	if err != nil {
		s.logger.Error("check reset marker", "error", err)
		return
	}
	if sent {
		return
	}

	if disabled, _ := s.settings.GetBool(store.SettingAutoResetDisabled); disabled {
		s.logger.Info("auto reset disabled, skipping")
		return
	}
	if sandbox, _ := s.settings.GetBool(store.SettingSandboxMode); sandbox {
		s.logger.Info("sandbox mode active, skipping reset")
		// One activity entry per day so the feed shows why nothing rotated.
		if sent, _ := s.notify.WasSent(notifyKindSandbox, refID); !sent {
			if err := s.logs.Append(model.LogEntry{Kind: model.LogSandbox, Reason: "scheduled reset suppressed"}); err != nil {
				s.logger.Error("append sandbox entry", "error", err)
				return
			}
			if err := s.notify.RecordSent(notifyKindSandbox, refID); err != nil {
				s.logger.Error("record sandbox marker", "error", err)
			}
		}
		return
	}

	result, err := s.orchestrator.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled reset failed", "error", err)
		return
	}

	if err := s.notify.RecordSent(notifyKindReset, refID); err != nil {
		s.logger.Error("record reset marker", "error", err)
	}
	if !result.Skipped {
		s.logger.Info("scheduled reset ran", "due", result.Due, "reassigned", result.Reassigned)
		for _, freq := range result.Due {
			if freq == model.FreqWeekly {
				s.writeWeeklySnapshot(now)
				break
			}
		}
	}
}

// writeWeeklySnapshot records per-person completion totals for the week that
// just ended, so the activity feed keeps a tally across Sunday resets.
func (s *Scheduler) writeWeeklySnapshot(now time.Time) {
	start := rotation.StartOfWeek(now.AddDate(0, 0, -1))
	entries, err := s.logs.ListSince(start)
	if err != nil {
		s.logger.Error("list entries for weekly snapshot", "error", err)
		return
	}

	counts := make(map[string]int)
	for _, e := range entries {
		if e.Kind == model.LogCompleted && e.Person != "" {
			counts[e.Person]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s completed %d", name, counts[name]))
	}

	end := start.AddDate(0, 0, 6)
	entry := model.LogEntry{
		Kind:     model.LogWeeklySnapshot,
		Duration: fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2")),
		Tasks:    lines,
	}
	if err := s.logs.Append(entry); err != nil {
		s.logger.Error("append weekly snapshot", "error", err)
	}
}

// sendReminders sends at most one SMS per person per day and one web push
// blast per day. Per-recipient failures are logged and skipped; they retry on
// the next tick because nothing is recorded for them.
func (s *Scheduler) sendReminders(ctx context.Context, now time.Time) {
	people, err := s.people.List()
	if err != nil {
		s.logger.Error("list people for reminders", "error", err)
		return
	}

	day := now.Format("2006-01-02")
	dateRange := weekRange(now)

	smsEnabled, _ := s.settings.GetBool(store.SettingSMSEnabled)
	if smsEnabled && s.gateway != nil && s.gateway.Configured() {
		for _, person := range people {
			if person.Phone == "" || person.Carrier == "" {
				continue
			}
			refID := fmt.Sprintf("%s-%d", day, person.ID)
			sent, err := s.notify.WasSent(notifyKindSMS, refID)
			if err != nil || sent {
				continue
			}

			open, err := s.openAssignments(person.ID)
			if err != nil {
				s.logger.Error("list open chores", "person", person.Name, "error", err)
				continue
			}

			if err := s.gateway.SendChoreReminder(person, open, dateRange); err != nil {
				s.logger.Warn("send sms reminder", "person", person.Name, "error", err)
				continue
			}
			if err := s.notify.RecordSent(notifyKindSMS, refID); err != nil {
				s.logger.Error("record sms marker", "error", err)
			}
		}
	}

	s.sendPushReminder(day)
}

func (s *Scheduler) sendPushReminder(day string) {
	if s.pushService == nil {
		return
	}

	sent, err := s.notify.WasSent(notifyKindWebPush, day)
	if err != nil || sent {
		return
	}

	all, err := s.assignments.ListAll()
	if err != nil {
		s.logger.Error("list assignments for push reminder", "error", err)
		return
	}
	var open int
	for _, a := range all {
		if !a.Completed {
			open++
		}
	}
	if open == 0 {
		// Nothing outstanding; mark the day done so we don't rescan.
		s.notify.RecordSent(notifyKindWebPush, day)
		return
	}

	subs, err := s.pushStore.List()
	if err != nil {
		s.logger.Error("list push subscriptions", "error", err)
		return
	}

	payload := push.Payload{
		Title: "Chore Reminders",
		Body:  fmt.Sprintf("%d chores still open today", open),
		URL:   "/",
		Tag:   "chore-daily",
	}
	for _, sub := range subs {
		if err := s.pushService.Send(&sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				s.pushStore.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Warn("send push reminder", "error", err)
			}
		}
	}

	if err := s.notify.RecordSent(notifyKindWebPush, day); err != nil {
		s.logger.Error("record push marker", "error", err)
	}
}

func (s *Scheduler) openAssignments(personID int64) ([]model.Assignment, error) {
	assignments, err := s.assignments.ListByPerson(personID)
	if err != nil {
		return nil, err
	}
	var open []model.Assignment
	for _, a := range assignments {
		if !a.Completed {
			open = append(open, a)
		}
	}
	return open, nil
}

// weekRange formats the current Sunday-to-Saturday span, e.g. "Jan 4 – Jan 10".
func weekRange(now time.Time) string {
	start := rotation.StartOfWeek(now)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2"))
}
