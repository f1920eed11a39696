package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
	"github.com/sakif/ideahub/internal/transform"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserRepo)(nil)

// Create inserts a profile row. The ID is the identity provider's stable
// identifier, set by the caller — we never generate it here, because the
// primary-key constraint on it is what makes concurrent EnsureProfile calls
// collapse into a single row. A PK conflict reports apperror.ErrConflict.
func (db *UserRepo) Create(ctx context.Context, user *model.User) error {
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, full_name, avatar_url, bio, location, website,
		                    joined_at, followers, following, public_repos, is_verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		nullable(user.Avatar),
		nullable(user.Bio),
		nullable(user.Location),
		nullable(user.Website),
		user.JoinedAt,
		user.Followers,
		user.Following,
		user.PublicRepos,
		user.IsVerified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.ID)
		}
		return apperror.Store(fmt.Sprintf("inserting user %s", user.ID), err)
	}

	return nil
}

// GetByID retrieves a profile row by the identity ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var row transform.UserRow

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, avatar_url, bio, location, website,
		        joined_at, followers, following, public_repos, is_verified
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&row.ID,
		&row.Username,
		&row.Email,
		&row.FullName,
		&row.AvatarURL,
		&row.Bio,
		&row.Location,
		&row.Website,
		&row.JoinedAt,
		&row.Followers,
		&row.Following,
		&row.PublicRepos,
		&row.IsVerified,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.Store(fmt.Sprintf("getting user %s", id), err)
	}

	user := transform.ToUser(row)
	return &user, nil
}

// Exists is the cheap membership probe EnsureProfile uses before inserting.
func (db *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE id = ?`, id,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperror.Store(fmt.Sprintf("checking user %s", id), err)
	}
	return true, nil
}

// nullable maps an empty string to NULL so optional columns round-trip as
// sql.NullString with Valid=false.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation detects SQLite constraint errors without binding to the
// driver's error type. modernc.org/sqlite reports them as
// "constraint failed: UNIQUE constraint failed: ..." (and PRIMARY KEY
// conflicts the same way).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
