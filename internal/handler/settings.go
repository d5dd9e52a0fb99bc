package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmckenna/chorewheel/internal/middleware"
	"github.com/jmckenna/chorewheel/internal/store"
	"github.com/jmckenna/chorewheel/internal/websocket"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, hub *websocket.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: ss, hub: hub, logger: logger}
}

func (h *SettingsHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// boolSettings are the keys the admin panel may toggle.
var boolSettings = map[string]bool{
	store.SettingSandboxMode:       true,
	store.SettingAutoResetDisabled: true,
	store.SettingSMSEnabled:        true,
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}

	out := make(map[string]any, len(all))
	for key, value := range all {
		if key == store.SettingAdminPINHash {
			continue
		}
		out[key] = value
	}
	out["pin_set"] = all[store.SettingAdminPINHash] != ""

	writeJSON(w, http.StatusOK, out)
}

// Update toggles boolean settings. Unknown keys and non-boolean values are
// rejected so a typo can't plant a dead setting.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	for key, value := range req {
		if !boolSettings[key] {
			writeError(w, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
		if _, err := strconv.ParseBool(value); err != nil {
			writeError(w, http.StatusBadRequest, key+" must be true or false")
			return
		}
	}

	for key, value := range req {
		if err := h.settings.Set(key, value); err != nil {
			h.logger.Error("save setting", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	h.broadcast(websocket.NewMessage("settings", "updated", "", nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

type pinRequest struct {
	PIN    string `json:"pin"`
	NewPIN string `json:"new_pin"`
}

// SetPIN sets or rotates the admin PIN. Rotating requires the current PIN.
func (h *SettingsHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.NewPIN) < 4 {
		writeError(w, http.StatusBadRequest, "PIN must be at least 4 characters")
		return
	}

	hash, err := h.settings.Get(store.SettingAdminPINHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read PIN")
		return
	}
	if hash != "" && !middleware.VerifyPIN(hash, req.PIN) {
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	newHash, err := middleware.HashPIN(req.NewPIN)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash PIN")
		return
	}
	if err := h.settings.Set(store.SettingAdminPINHash, newHash); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// VerifyPIN checks a PIN so the admin panel can unlock. Rate limited at the
// router to slow down guessing.
func (h *SettingsHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.settings.Get(store.SettingAdminPINHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read PIN")
		return
	}
	if hash == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no PIN set"})
		return
	}
	if !middleware.VerifyPIN(hash, req.PIN) {
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
