package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/rotation"
	"github.com/jmckenna/chorewheel/internal/store"
)

type LogHandler struct {
	logs   *store.LogStore
	people *store.PersonStore
	logger *slog.Logger
}

func NewLogHandler(ls *store.LogStore, ps *store.PersonStore, logger *slog.Logger) *LogHandler {
	return &LogHandler{logs: ls, people: ps, logger: logger}
}

// List returns recent activity entries, newest first. "limit" caps the count.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.logs.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}
	if entries == nil {
		entries = []model.LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type personSummary struct {
	Completed   int      `json:"completed"`
	Missed      int      `json:"missed"`
	MissedTasks []string `json:"missed_tasks,omitempty"`
	Helped      int      `json:"helped"`
	DollarsOwed int      `json:"dollars_owed"`
	Paid        bool     `json:"paid"`
}

type weeklySummary struct {
	WeekStart string                   `json:"week_start"`
	People    map[string]personSummary `json:"people"`
}

// WeeklySummary aggregates this week's activity per person: completions,
// charged misses, chores taken over from others, and the current balance.
func (h *LogHandler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	start := rotation.StartOfWeek(time.Now())

	entries, err := h.logs.ListSince(start)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read activity")
		return
	}
	people, err := h.people.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list people")
		return
	}

	summary := weeklySummary{
		WeekStart: start.Format("2006-01-02"),
		People:    make(map[string]personSummary, len(people)),
	}
	for _, person := range people {
		summary.People[person.Name] = personSummary{
			DollarsOwed: person.DollarsOwed,
			Paid:        person.Paid,
		}
	}

	for _, e := range entries {
		switch e.Kind {
		case model.LogCompleted:
			if s, ok := summary.People[e.Person]; ok {
				s.Completed++
				summary.People[e.Person] = s
			}
		case model.LogMissedChores:
			if s, ok := summary.People[e.Person]; ok {
				s.Missed += e.Amount
				s.MissedTasks = append(s.MissedTasks, e.Tasks...)
				summary.People[e.Person] = s
			}
		case model.LogTransferred:
			if s, ok := summary.People[e.To]; ok {
				s.Helped++
				summary.People[e.To] = s
			}
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

// Clear wipes the activity log.
func (h *LogHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.logs.DeleteAll(); err != nil {
		h.logger.Error("clear activity log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear activity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
