package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ideahub/internal/service"
)

// StatsHandler exposes the platform and per-user dashboard counters.
type StatsHandler struct {
	stats     *service.StatsService
	refresher *service.Refresher
	logger    *slog.Logger
}

// NewStatsHandler creates a new StatsHandler. refresher may be nil; the
// platform endpoint then always recomputes.
func NewStatsHandler(stats *service.StatsService, refresher *service.Refresher, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:     stats,
		refresher: refresher,
		logger:    logger,
	}
}

// HandlePlatform returns platform-wide counters. When a refresher is
// running, its cached snapshot is served; before the first refresh (or
// without a refresher) the figures are computed on the spot.
//
// HTTP: GET /api/stats/platform
func (h *StatsHandler) HandlePlatform(w http.ResponseWriter, r *http.Request) {
	if h.refresher != nil {
		if snapshot, _, ok := h.refresher.Cached(); ok {
			writeData(w, http.StatusOK, snapshot, "")
			return
		}
	}

	stats, err := h.stats.PlatformStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats, "")
}

// HandleUserStats returns a user's dashboard counters.
//
// HTTP: GET /api/users/{id}/stats
func (h *StatsHandler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.UserDashboardStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats, "")
}
