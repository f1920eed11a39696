package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/repository"
)

// allowedPrefs whitelists the preference keys clients can read and write.
// Today that is just the UI theme; new keys get added here deliberately
// rather than letting clients invent arbitrary storage.
var allowedPrefs = map[string]bool{
	"theme": true,
}

// PrefsHandler stores small client preferences server-side in the KV store.
type PrefsHandler struct {
	kv     repository.KVRepository
	logger *slog.Logger
}

// NewPrefsHandler creates a new PrefsHandler.
func NewPrefsHandler(kv repository.KVRepository, logger *slog.Logger) *PrefsHandler {
	return &PrefsHandler{
		kv:     kv,
		logger: logger,
	}
}

type prefRequest struct {
	Value string `json:"value"`
}

// HandleGet reads a preference.
//
// HTTP: GET /api/prefs/{key}
func (h *PrefsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !allowedPrefs[key] {
		writeError(w, apperror.NotFound("preference", key))
		return
	}

	value, err := h.kv.GetKV(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"key": key, "value": value}, "")
}

// HandleSet writes a preference.
//
// HTTP: PUT /api/prefs/{key}
func (h *PrefsHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !allowedPrefs[key] {
		writeError(w, apperror.NotFound("preference", key))
		return
	}

	var req prefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Value == "" {
		writeError(w, apperror.ValidationFailed("value", "preference value is required"))
		return
	}

	if err := h.kv.SetKV(r.Context(), key, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"key": key, "value": req.Value}, "preference saved")
}
