package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
)

// UserViewsPerIdea is the placeholder multiplier behind TotalViews. No view
// counter exists in the store, so dashboards get idea count times this
// constant instead of a real figure.
const UserViewsPerIdea = 150

// IdeasThisWeekWindow is the lookback for the "ideas this week" counter.
const IdeasThisWeekWindow = 7 * 24 * time.Hour

// StatsService computes aggregate counters for the platform dashboard and
// per-user dashboards. Every figure is recomputed from the store on each
// call; the Refresher adds a cached snapshot for callers that prefer
// staleness over query fan-out.
type StatsService struct {
	stats  repository.StatsRepository
	stars  repository.StarRepository
	logger *slog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(stats repository.StatsRepository, stars repository.StarRepository, logger *slog.Logger) *StatsService {
	return &StatsService{
		stats:  stats,
		stars:  stars,
		logger: logger,
	}
}

// PlatformStats computes the platform-wide counters. Collaborations are
// defined as every star plus every recorded fork of a public, published
// idea. The four underlying queries run sequentially and any failure fails
// the whole call — a dashboard with three real numbers and one zero would
// be worse than an error.
func (s *StatsService) PlatformStats(ctx context.Context) (*model.PlatformStats, error) {
	totalIdeas, err := s.stats.CountPublishedIdeas(ctx)
	if err != nil {
		return nil, err
	}

	activeUsers, err := s.stats.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	ideasThisWeek, err := s.stats.CountIdeasCreatedSince(ctx, time.Now().Add(-IdeasThisWeekWindow))
	if err != nil {
		return nil, err
	}

	starCount, err := s.stars.Count(ctx)
	if err != nil {
		return nil, err
	}
	forkSum, err := s.stats.SumPublishedForks(ctx)
	if err != nil {
		return nil, err
	}

	return &model.PlatformStats{
		TotalIdeas:          totalIdeas,
		ActiveUsers:         activeUsers,
		IdeasThisWeek:       ideasThisWeek,
		TotalCollaborations: starCount + forkSum,
	}, nil
}

// UserDashboardStats aggregates a user's authored ideas. TotalViews is the
// documented placeholder, not a measurement.
func (s *StatsService) UserDashboardStats(ctx context.Context, userID string) (*model.UserDashboardStats, error) {
	ideas, stars, forks, err := s.stats.UserIdeaTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.UserDashboardStats{
		TotalIdeas: ideas,
		TotalStars: stars,
		TotalForks: forks,
		TotalViews: ideas * UserViewsPerIdea,
	}, nil
}

// Refresher recomputes platform stats on a timer and caches the latest
// snapshot. Reads never block on a recompute: Cached returns whatever the
// most recent successful refresh produced. Writes are last-writer-wins — if
// a slow refresh overlaps a fast one, the later completion overwrites the
// earlier, and no ordering between overlapping refreshes is promised.
type Refresher struct {
	service  *StatsService
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	snapshot  *model.PlatformStats
	refreshed time.Time
}

// NewRefresher creates a Refresher; Run starts it.
func NewRefresher(service *StatsService, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
// Meant to be launched as a goroutine from the composition root.
func (r *Refresher) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Cached returns the latest snapshot and when it was taken. The bool is
// false until the first successful refresh completes.
func (r *Refresher) Cached() (*model.PlatformStats, time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snapshot == nil {
		return nil, time.Time{}, false
	}
	snap := *r.snapshot
	return &snap, r.refreshed, true
}

func (r *Refresher) refresh(ctx context.Context) {
	stats, err := r.service.PlatformStats(ctx)
	if err != nil {
		// Keep serving the previous snapshot; a failed refresh is logged,
		// not fatal.
		r.logger.Error("platform stats refresh failed", slog.String("error", err.Error()))
		return
	}

	r.mu.Lock()
	r.snapshot = stats
	r.refreshed = time.Now()
	r.mu.Unlock()
}
