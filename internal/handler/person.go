package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/rotation"
	"github.com/jmckenna/chorewheel/internal/store"
	"github.com/jmckenna/chorewheel/internal/websocket"
)

type PersonHandler struct {
	people      *store.PersonStore
	assignments *store.AssignmentStore
	logs        *store.LogStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewPersonHandler(ps *store.PersonStore, as *store.AssignmentStore, ls *store.LogStore, hub *websocket.Hub, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{people: ps, assignments: as, logs: ls, hub: hub, logger: logger}
}

func (h *PersonHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type personCard struct {
	model.Person
	Assignments []model.Assignment `json:"assignments"`
}

type dashboardPayload struct {
	WeekRange string       `json:"week_range"`
	Month     string       `json:"month"`
	People    []personCard `json:"people"`
}

// Dashboard returns every person with their current assignments plus the
// banner date labels the front end shows above the board.
func (h *PersonHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	people, err := h.people.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list people")
		return
	}

	cards := make([]personCard, 0, len(people))
	for _, person := range people {
		assignments, err := h.assignments.ListByPerson(person.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list assignments")
			return
		}
		if assignments == nil {
			assignments = []model.Assignment{}
		}
		cards = append(cards, personCard{Person: person, Assignments: assignments})
	}

	now := time.Now()
	start := rotation.StartOfWeek(now)
	end := start.AddDate(0, 0, 6)

	writeJSON(w, http.StatusOK, dashboardPayload{
		WeekRange: fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2")),
		Month:     now.Format("January 2006"),
		People:    cards,
	})
}

type personRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Phone     string `json:"phone"`
	Carrier   string `json:"carrier"`
	SortOrder int    `json:"sort_order"`
}

func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.people.GetByName(req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "a person with that name already exists")
		return
	}

	person, err := h.people.Create(req.Name, req.Color, req.Phone, req.Carrier, req.SortOrder)
	if err != nil {
		h.logger.Error("create person", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create person")
		return
	}

	h.broadcast(websocket.NewMessage("person", "created", person.Name, nil))
	writeJSON(w, http.StatusCreated, person)
}

func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.people.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	person, err := h.people.Update(id, req.Name, req.Color, req.Phone, req.Carrier, req.SortOrder)
	if err != nil {
		h.logger.Error("update person", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update person")
		return
	}

	h.broadcast(websocket.NewMessage("person", "updated", person.Name, nil))
	writeJSON(w, http.StatusOK, person)
}

func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.people.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}

	if err := h.people.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete person")
		return
	}

	h.broadcast(websocket.NewMessage("person", "deleted", existing.Name, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type paidRequest struct {
	Paid bool `json:"paid"`
}

// TogglePaid flips a person's paid flag without touching the balance, so a
// parent can mark a debt settled while keeping the amount visible.
func (h *PersonHandler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	person, err := h.people.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}

	var req paidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.people.SetPaid(id, req.Paid); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update paid status")
		return
	}

	status := "unpaid"
	if req.Paid {
		status = "paid"
	}
	if err := h.logs.Append(model.LogEntry{Kind: model.LogTogglePaid, Person: person.Name, Status: status}); err != nil {
		h.logger.Warn("log paid toggle", "error", err)
	}

	h.broadcast(websocket.NewMessage("person", "paid", person.Name, map[string]any{"paid": req.Paid}))
	writeJSON(w, http.StatusOK, map[string]any{"paid": req.Paid})
}

type owedRequest struct {
	Amount *int `json:"amount"`
	Delta  *int `json:"delta"`
}

// SetOwed adjusts a person's balance. "amount" sets the absolute value;
// "delta" applies a signed adjustment. Balances never go below zero.
func (h *PersonHandler) SetOwed(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	person, err := h.people.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}

	var req owedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Amount == nil && req.Delta == nil {
		writeError(w, http.StatusBadRequest, "amount or delta is required")
		return
	}

	var amount int
	switch {
	case req.Amount != nil:
		if err := h.people.SetOwed(id, *req.Amount); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to set balance")
			return
		}
		amount = *req.Amount
	default:
		if err := h.people.AdjustOwed(id, *req.Delta); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to adjust balance")
			return
		}
		amount = *req.Delta
	}

	if err := h.logs.Append(model.LogEntry{Kind: model.LogTogglePaid, Person: person.Name, Amount: amount, Status: "adjusted"}); err != nil {
		h.logger.Warn("log balance change", "error", err)
	}

	updated, err := h.people.GetByID(id)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "failed to reload person")
		return
	}

	h.broadcast(websocket.NewMessage("person", "balance", person.Name, map[string]any{"dollars_owed": updated.DollarsOwed}))
	writeJSON(w, http.StatusOK, updated)
}

type skipRequest struct {
	Duration string `json:"duration"`
	Reason   string `json:"reason"`
}

// Skip records a day or week exemption for a person. Anyone with a skip on
// record since the start of the week is excused from miss accounting.
func (h *PersonHandler) Skip(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	person, err := h.people.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}

	var req skipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Duration != "day" && req.Duration != "week" {
		writeError(w, http.StatusBadRequest, "duration must be day or week")
		return
	}

	if err := h.logs.Append(model.LogEntry{
		Kind:     model.LogSkipped,
		Person:   person.Name,
		Duration: req.Duration,
		Reason:   strings.TrimSpace(req.Reason),
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record skip")
		return
	}

	h.broadcast(websocket.NewMessage("person", "skipped", person.Name, map[string]any{"duration": req.Duration}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "skipped", "duration": req.Duration})
}
