package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/repository"
)

// StatsRepo implements repository.StatsRepository.
type StatsRepo struct {
	conn *sql.DB
}

var _ repository.StatsRepository = (*StatsRepo)(nil)

func (db *StatsRepo) countRow(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperror.Store(op, err)
	}
	return n, nil
}

// CountPublishedIdeas counts public, published ideas.
func (db *StatsRepo) CountPublishedIdeas(ctx context.Context) (int, error) {
	return db.countRow(ctx, "counting published ideas",
		`SELECT COUNT(*) FROM ideas WHERE visibility = 'public' AND status = 'published'`)
}

// CountUsers counts all user rows. This backs the "active users" stat —
// there is no activity-window filter behind the name.
func (db *StatsRepo) CountUsers(ctx context.Context) (int, error) {
	return db.countRow(ctx, "counting users", `SELECT COUNT(*) FROM users`)
}

// CountIdeasCreatedSince counts public, published ideas created at or after
// the given instant (inclusive boundary).
func (db *StatsRepo) CountIdeasCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return db.countRow(ctx, "counting recent ideas",
		`SELECT COUNT(*) FROM ideas
		 WHERE visibility = 'public' AND status = 'published' AND created_at >= ?`,
		since)
}

// SumPublishedForks sums the fork counters across public, published ideas.
func (db *StatsRepo) SumPublishedForks(ctx context.Context) (int, error) {
	return db.countRow(ctx, "summing published forks",
		`SELECT COALESCE(SUM(forks), 0) FROM ideas
		 WHERE visibility = 'public' AND status = 'published'`)
}

// UserIdeaTotals aggregates a user's authored ideas: how many, and the sums
// of their stars and forks counters.
func (db *StatsRepo) UserIdeaTotals(ctx context.Context, userID string) (ideas, stars, forks int, err error) {
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(stars), 0), COALESCE(SUM(forks), 0)
		 FROM ideas WHERE author_id = ?`,
		userID,
	).Scan(&ideas, &stars, &forks)
	if err != nil {
		return 0, 0, 0, apperror.Store("aggregating user ideas", err)
	}
	return ideas, stars, forks, nil
}
