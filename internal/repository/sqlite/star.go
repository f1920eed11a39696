package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
)

// StarRepo implements repository.StarRepository.
type StarRepo struct {
	conn *sql.DB
}

var _ repository.StarRepository = (*StarRepo)(nil)

// Toggle flips star membership for (userID, ideaID) in one transaction.
//
// Delete-first keeps the branch free of conflict handling: if the DELETE
// removed a row the user had starred, so we decrement and finish; otherwise
// we insert and increment. Because the relation row and the counter move in
// the same transaction, ideas.stars always equals the relation's
// cardinality — the drift that plagues counter-maintained-elsewhere designs
// cannot happen here.
//
// Two rapid toggles from the same user still flip twice (each one is
// individually consistent); the unique (user_id, idea_id) index is the
// backstop against duplicate rows if racing inserts ever interleave.
func (db *StarRepo) Toggle(ctx context.Context, userID, ideaID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, apperror.Store("beginning star toggle", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM stars WHERE user_id = ? AND idea_id = ?`,
		userID, ideaID,
	)
	if err != nil {
		return false, apperror.Store("removing star", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, apperror.Store("checking rows affected", err)
	}

	var starred bool
	if removed > 0 {
		// Unstar: the stars > 0 guard keeps the counter from going negative
		// if it ever started out inconsistent.
		if _, err := tx.ExecContext(ctx,
			`UPDATE ideas SET stars = stars - 1 WHERE id = ? AND stars > 0`,
			ideaID,
		); err != nil {
			return false, apperror.Store("decrementing stars", err)
		}
	} else {
		star := model.Star{
			ID:        xid.New().String(),
			UserID:    userID,
			IdeaID:    ideaID,
			CreatedAt: time.Now(),
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stars (id, user_id, idea_id, created_at) VALUES (?, ?, ?, ?)`,
			star.ID, star.UserID, star.IdeaID, star.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return false, apperror.Conflict("star", fmt.Sprintf("%s/%s", userID, ideaID))
			}
			return false, apperror.Store("inserting star", err)
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE ideas SET stars = stars + 1 WHERE id = ?`, ideaID)
		if err != nil {
			return false, apperror.Store("incrementing stars", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return false, apperror.Store("checking rows affected", err)
		}
		if affected == 0 {
			return false, apperror.NotFound("idea", ideaID)
		}
		starred = true
	}

	if err := tx.Commit(); err != nil {
		return false, apperror.Store("committing star toggle", err)
	}

	return starred, nil
}

// IsStarred reports current membership for a (user, idea) pair.
func (db *StarRepo) IsStarred(ctx context.Context, userID, ideaID string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM stars WHERE user_id = ? AND idea_id = ?`,
		userID, ideaID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperror.Store("checking star membership", err)
	}
	return true, nil
}

// Count returns the total number of star rows across the platform.
func (db *StarRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM stars`).Scan(&n); err != nil {
		return 0, apperror.Store("counting stars", err)
	}
	return n, nil
}
