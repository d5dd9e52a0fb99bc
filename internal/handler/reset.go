package handler

import (
	"log/slog"
	"net/http"

	"github.com/jmckenna/chorewheel/internal/rotation"
	"github.com/jmckenna/chorewheel/internal/websocket"
)

type ResetHandler struct {
	orchestrator *rotation.Orchestrator
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewResetHandler(o *rotation.Orchestrator, hub *websocket.Hub, logger *slog.Logger) *ResetHandler {
	return &ResetHandler{orchestrator: o, hub: hub, logger: logger}
}

func (h *ResetHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Manual forces a full reset right now: misses tallied, every chore
// redistributed, all frequency timestamps advanced.
func (h *ResetHandler) Manual(w http.ResponseWriter, r *http.Request) {
	result, err := h.orchestrator.ManualReset(r.Context())
	if err != nil {
		h.logger.Error("manual reset", "error", err)
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}

	h.broadcast(websocket.NewMessage("reset", "manual", "", nil))
	writeJSON(w, http.StatusOK, result)
}

// All wipes progress entirely: balances zeroed, completions cleared, fresh
// distribution. No miss accounting.
func (h *ResetHandler) All(w http.ResponseWriter, r *http.Request) {
	result, err := h.orchestrator.ResetAll(r.Context())
	if err != nil {
		h.logger.Error("reset all", "error", err)
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}

	h.broadcast(websocket.NewMessage("reset", "all", "", nil))
	writeJSON(w, http.StatusOK, result)
}

// Preview reports which frequency classes are due and which chores each
// person would be charged for, without writing anything.
func (h *ResetHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.orchestrator.Preview(r.Context())
	if err != nil {
		h.logger.Error("preview reset", "error", err)
		writeError(w, http.StatusInternalServerError, "preview failed")
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
