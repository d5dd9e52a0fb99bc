package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmckenna/chorewheel/internal/model"
	"github.com/jmckenna/chorewheel/internal/store"
	"github.com/jmckenna/chorewheel/internal/websocket"
)

type ChoreHandler struct {
	chores *store.ChoreStore
	people *store.PersonStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, ps *store.PersonStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, people: ps, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.chores.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if defs == nil {
		defs = []model.ChoreDef{}
	}
	writeJSON(w, http.StatusOK, defs)
}

type choreRequest struct {
	Task           string `json:"task"`
	Frequency      string `json:"frequency"`
	PermanentOwner string `json:"permanent_owner"`
}

// Create adds a chore to the catalog. A permanent owner pins the chore to one
// person; otherwise it joins the rotating pool at the next reset.
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Task = strings.TrimSpace(req.Task)
	if req.Task == "" {
		writeError(w, http.StatusBadRequest, "task is required")
		return
	}

	freq := model.Frequency(req.Frequency)
	if !freq.Valid() {
		writeError(w, http.StatusBadRequest, "unknown frequency")
		return
	}

	origin := model.OriginRotating
	owner := strings.TrimSpace(req.PermanentOwner)
	if owner != "" {
		person, err := h.people.GetByName(owner)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check owner")
			return
		}
		if person == nil {
			writeError(w, http.StatusBadRequest, "permanent owner not found")
			return
		}
		origin = model.OriginPermanent
		owner = person.Name
	}

	def, err := h.chores.Create(req.Task, freq, origin, owner)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "created", owner, map[string]any{"task": def.Task}))
	writeJSON(w, http.StatusCreated, def)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.chores.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "deleted", "", nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
