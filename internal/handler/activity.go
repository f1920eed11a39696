package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ideahub/internal/service"
)

// ActivityHandler exposes the derived activity feeds.
type ActivityHandler struct {
	activities *service.ActivityService
	logger     *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activities *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		logger:     logger,
	}
}

// HandleGlobalFeed returns the platform-wide activity feed.
//
// HTTP: GET /api/activity
func (h *ActivityHandler) HandleGlobalFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.activities.GlobalFeed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, feed, "")
}

// HandleUserFeed returns a user's recent creations.
//
// HTTP: GET /api/users/{id}/activity
func (h *ActivityHandler) HandleUserFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.activities.UserFeed(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, feed, "")
}
