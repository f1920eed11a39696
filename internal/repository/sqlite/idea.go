package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
	"github.com/sakif/ideahub/internal/transform"
)

// IdeaRepo implements repository.IdeaRepository.
type IdeaRepo struct {
	conn *sql.DB
}

var _ repository.IdeaRepository = (*IdeaRepo)(nil)

// ideaSelect is the shared projection for idea queries: the idea row, its
// author row expanded, and a viewer-relative membership check against the
// stars relation. The first bind parameter of every query built on it is
// the viewer ID ("" for anonymous viewers — it matches no star row, so
// is_starred scans as false).
const ideaSelect = `
	SELECT i.id, i.title, i.description, i.content,
	       i.tags, i.category, i.license, i.version,
	       i.stars, i.forks, i.is_fork, i.forked_from,
	       i.visibility, i.status, i.language, i.created_at, i.updated_at,
	       u.id, u.username, u.email, u.full_name, u.avatar_url, u.bio,
	       u.location, u.website, u.joined_at, u.followers, u.following,
	       u.public_repos, u.is_verified,
	       s.id IS NOT NULL AS is_starred
	FROM ideas i
	JOIN users u ON u.id = i.author_id
	LEFT JOIN stars s ON s.idea_id = i.id AND s.user_id = ?`

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdeaRow(sc rowScanner) (transform.IdeaRow, error) {
	var row transform.IdeaRow
	err := sc.Scan(
		&row.ID,
		&row.Title,
		&row.Description,
		&row.Content,
		&row.TagsJSON,
		&row.Category,
		&row.License,
		&row.Version,
		&row.Stars,
		&row.Forks,
		&row.IsFork,
		&row.ForkedFrom,
		&row.Visibility,
		&row.Status,
		&row.Language,
		&row.CreatedAt,
		&row.UpdatedAt,
		&row.Author.ID,
		&row.Author.Username,
		&row.Author.Email,
		&row.Author.FullName,
		&row.Author.AvatarURL,
		&row.Author.Bio,
		&row.Author.Location,
		&row.Author.Website,
		&row.Author.JoinedAt,
		&row.Author.Followers,
		&row.Author.Following,
		&row.Author.PublicRepos,
		&row.Author.IsVerified,
		&row.IsStarred,
	)
	return row, err
}

func (db *IdeaRepo) queryIdeas(ctx context.Context, op, query string, args ...any) ([]model.Idea, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Store(op, err)
	}
	defer rows.Close()

	ideas := []model.Idea{}
	for rows.Next() {
		row, err := scanIdeaRow(rows)
		if err != nil {
			return nil, apperror.Store(op+": scanning row", err)
		}
		ideas = append(ideas, transform.ToIdea(row))
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(op+": iterating rows", err)
	}

	return ideas, nil
}

// Create inserts a new idea and returns it re-read with the author expanded.
// Timestamps and the ID are generated here; counters start at zero via the
// column defaults.
func (db *IdeaRepo) Create(ctx context.Context, in repository.NewIdea) (*model.Idea, error) {
	id := xid.New().String()
	now := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ideas (id, title, description, content, author_id, tags, category,
		                    license, visibility, status, language, is_fork, forked_from,
		                    created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		in.Title,
		in.Description,
		in.Content,
		in.AuthorID,
		transform.EncodeTags(in.Tags),
		nullable(in.Category),
		nullable(in.License),
		string(in.Visibility),
		string(in.Status),
		nullable(in.Language),
		in.IsFork,
		nullable(in.ForkedFrom),
		now,
		now,
	)
	if err != nil {
		return nil, apperror.Store("inserting idea", err)
	}

	return db.Get(ctx, id, "")
}

// Get fetches a single idea by primary key, regardless of visibility or
// status. A missing key is apperror.ErrNotFound, never a nil result.
func (db *IdeaRepo) Get(ctx context.Context, id, viewerID string) (*model.Idea, error) {
	row, err := scanIdeaRow(db.conn.QueryRowContext(ctx,
		ideaSelect+` WHERE i.id = ?`,
		viewerID, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("idea", id)
		}
		return nil, apperror.Store(fmt.Sprintf("getting idea %s", id), err)
	}

	idea := transform.ToIdea(row)
	return &idea, nil
}

// List returns public, published ideas matching the filter, ordered by the
// filter's single sort key. Ties on the sort key come back in SQLite's
// natural order, which is not deterministic across runs.
func (db *IdeaRepo) List(ctx context.Context, filter repository.IdeaFilter, viewerID string) ([]model.Idea, error) {
	conds := []string{`i.visibility = 'public'`, `i.status = 'published'`}
	args := []any{viewerID}

	if filter.Category != "" && filter.Category != "all" {
		conds = append(conds, `i.category = ?`)
		args = append(args, filter.Category)
	}
	if filter.Language != "" && filter.Language != "all" {
		conds = append(conds, `i.language = ?`)
		args = append(args, filter.Language)
	}
	if filter.Query != "" {
		// Case-insensitive substring match on title OR description.
		conds = append(conds, `(instr(lower(i.title), lower(?)) > 0 OR instr(lower(i.description), lower(?)) > 0)`)
		args = append(args, filter.Query, filter.Query)
	}

	query := ideaSelect + ` WHERE ` + strings.Join(conds, " AND ") + orderBy(filter.Sort)
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	return db.queryIdeas(ctx, "listing ideas", query, args...)
}

// orderBy maps a sort name to its ORDER BY clause. Unknown or empty sorts
// fall back to newest-first, mirroring the listing contract.
func orderBy(sort string) string {
	switch sort {
	case repository.SortOldest:
		return ` ORDER BY i.created_at ASC`
	case repository.SortMostStars:
		return ` ORDER BY i.stars DESC`
	case repository.SortMostForks:
		return ` ORDER BY i.forks DESC`
	case repository.SortRecentlyUpdated:
		return ` ORDER BY i.updated_at DESC`
	default:
		return ` ORDER BY i.created_at DESC`
	}
}

// Update applies a partial update to an idea's mutable fields and returns
// the updated entity. Counters, author, and fork lineage are not settable
// here — they are store-owned (see Toggle and IncrementForks).
func (db *IdeaRepo) Update(ctx context.Context, id string, upd repository.IdeaUpdate) (*model.Idea, error) {
	sets := []string{`updated_at = ?`}
	args := []any{time.Now()}

	appendSet := func(col string, val any) {
		sets = append(sets, col+` = ?`)
		args = append(args, val)
	}

	if upd.Title != nil {
		appendSet("title", *upd.Title)
	}
	if upd.Description != nil {
		appendSet("description", *upd.Description)
	}
	if upd.Content != nil {
		appendSet("content", *upd.Content)
	}
	if upd.Tags != nil {
		appendSet("tags", transform.EncodeTags(upd.Tags))
	}
	if upd.Category != nil {
		appendSet("category", nullable(*upd.Category))
	}
	if upd.License != nil {
		appendSet("license", nullable(*upd.License))
	}
	if upd.Visibility != nil {
		appendSet("visibility", string(*upd.Visibility))
	}
	if upd.Language != nil {
		appendSet("language", nullable(*upd.Language))
	}
	if upd.Status != nil {
		appendSet("status", string(*upd.Status))
	}

	args = append(args, id)
	result, err := db.conn.ExecContext(ctx,
		`UPDATE ideas SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, apperror.Store(fmt.Sprintf("updating idea %s", id), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperror.Store("checking rows affected", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("idea", id)
	}

	return db.Get(ctx, id, "")
}

// Delete removes an idea. Hard delete — no tombstone. Star rows go with it
// via ON DELETE CASCADE; forks keep their dangling forked_from reference.
func (db *IdeaRepo) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM ideas WHERE id = ?`, id)
	if err != nil {
		return apperror.Store(fmt.Sprintf("deleting idea %s", id), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Store("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("idea", id)
	}

	return nil
}

// IncrementForks adds one to the fork counter as a single relative UPDATE.
// The arithmetic happens inside the store, so two concurrent forks of the
// same idea each land their increment — no lost update, unlike reading the
// counter into the application and writing back current+1.
func (db *IdeaRepo) IncrementForks(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE ideas SET forks = forks + 1 WHERE id = ?`, id)
	if err != nil {
		return apperror.Store(fmt.Sprintf("incrementing forks for idea %s", id), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Store("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("idea", id)
	}

	return nil
}

// ListStarred returns the ideas a user has starred, in no particular order.
// The viewer is the user themselves, so is_starred is true for every row by
// construction of the join.
func (db *IdeaRepo) ListStarred(ctx context.Context, userID string) ([]model.Idea, error) {
	query := ideaSelect + ` JOIN stars mine ON mine.idea_id = i.id AND mine.user_id = ?`
	return db.queryIdeas(ctx, "listing starred ideas", query, userID, userID)
}

// ListForked returns ideas the user authored that are themselves forks —
// not ideas forked from the user's originals.
func (db *IdeaRepo) ListForked(ctx context.Context, userID, viewerID string) ([]model.Idea, error) {
	query := ideaSelect + ` WHERE i.author_id = ? AND i.is_fork = 1`
	return db.queryIdeas(ctx, "listing forked ideas", query, viewerID, userID)
}

// ListByAuthor returns a user's public, published ideas, newest first.
func (db *IdeaRepo) ListByAuthor(ctx context.Context, userID, viewerID string) ([]model.Idea, error) {
	query := ideaSelect + ` WHERE i.author_id = ? AND i.visibility = 'public' AND i.status = 'published'
	 ORDER BY i.created_at DESC`
	return db.queryIdeas(ctx, "listing ideas by author", query, viewerID, userID)
}

// Popular returns the top ideas by stars, bounded to a fixed page of 10.
// No pagination cursor — the product surface only shows one page.
func (db *IdeaRepo) Popular(ctx context.Context, viewerID string) ([]model.Idea, error) {
	query := ideaSelect + ` WHERE i.visibility = 'public' AND i.status = 'published'
	 ORDER BY i.stars DESC LIMIT 10`
	return db.queryIdeas(ctx, "listing popular ideas", query, viewerID)
}
