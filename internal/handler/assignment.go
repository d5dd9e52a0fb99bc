package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/store"
	"github.com/jmckenna/chorewheel/internal/websocket"
)

type AssignmentHandler struct {
	assignments *store.AssignmentStore
	people      *store.PersonStore
	logs        *store.LogStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewAssignmentHandler(as *store.AssignmentStore, ps *store.PersonStore, ls *store.LogStore, hub *websocket.Hub, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: as, people: ps, logs: ls, hub: hub, logger: logger}
}

func (h *AssignmentHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// load fetches the assignment named in the path plus its owner, writing the
// error response itself when either is missing.
func (h *AssignmentHandler) load(w http.ResponseWriter, r *http.Request) (*model.Assignment, *model.Person, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, nil, false
	}

	assignment, err := h.assignments.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return nil, nil, false
	}
	if assignment == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return nil, nil, false
	}

	person, err := h.people.GetByID(assignment.PersonID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return nil, nil, false
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "assignment owner not found")
		return nil, nil, false
	}
	return assignment, person, true
}

func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, true)
}

func (h *AssignmentHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, false)
}

func (h *AssignmentHandler) setCompleted(w http.ResponseWriter, r *http.Request, completed bool) {
	assignment, person, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.assignments.SetCompleted(assignment.ID, completed); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update assignment")
		return
	}

	if completed {
		if err := h.logs.Append(model.LogEntry{Kind: model.LogCompleted, Person: person.Name, Task: assignment.Task}); err != nil {
			h.logger.Warn("log completion", "error", err)
		}
	}

	action := "uncompleted"
	if completed {
		action = "completed"
	}
	h.broadcast(websocket.NewMessage("assignment", action, person.Name, map[string]any{"task": assignment.Task}))
	writeJSON(w, http.StatusOK, map[string]any{"id": assignment.ID, "completed": completed})
}

type transferRequest struct {
	ToPersonID int64 `json:"to_person_id"`
}

// Transfer reassigns one chore instance to a helper. The helper gets credit
// for taking it on: a dollar comes off their balance, floored at zero.
func (h *AssignmentHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	assignment, from, ok := h.load(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	to, err := h.people.GetByID(req.ToPersonID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if to == nil {
		writeError(w, http.StatusBadRequest, "target person not found")
		return
	}
	if to.ID == from.ID {
		writeError(w, http.StatusBadRequest, "cannot transfer a chore to its current owner")
		return
	}

	if err := h.assignments.Transfer(assignment.ID, from, to); err != nil {
		h.logger.Error("transfer assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to transfer assignment")
		return
	}

	if err := h.logs.Append(model.LogEntry{
		Kind: model.LogTransferred,
		Task: assignment.Task,
		From: from.Name,
		To:   to.Name,
	}); err != nil {
		h.logger.Warn("log transfer", "error", err)
	}

	h.broadcast(websocket.NewMessage("assignment", "transferred", to.Name, map[string]any{
		"task": assignment.Task,
		"from": from.Name,
	}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred", "to": to.Name})
}

type completedListRequest struct {
	Tasks []string `json:"tasks"`
}

// EditCompleted replaces a person's set of completed tasks wholesale. The
// admin panel uses this to correct mistakes after the fact.
func (h *AssignmentHandler) EditCompleted(w http.ResponseWriter, r *http.Request) {
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

	var req completedListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.assignments.SetCompletedTasks(person.ID, req.Tasks); err != nil {
		h.logger.Error("edit completed list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update completed list")
		return
	}

	h.broadcast(websocket.NewMessage("assignment", "edited", person.Name, nil))
	writeJSON(w, http.StatusOK, map[string]any{"person": person.Name, "completed": req.Tasks})
}
