// Package transform maps storage rows (snake_case, nullable columns) to the
// application's entity shapes (camelCase JSON, defaulted fields).
//
// Everything in this package is a pure function: same input, same output, no
// I/O, no errors. Nullable columns arrive as sql.Null* values and map to the
// entity's zero value or documented default — callers downstream never see a
// null. This is the one place raw store shapes are converted; the service
// layer and everything above it works only with model types.
package transform

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sakif/ideahub/internal/model"
)

// UserRow is the raw shape of a users-table row.
type UserRow struct {
	ID          string
	Username    string
	Email       string
	FullName    string
	AvatarURL   sql.NullString
	Bio         sql.NullString
	Location    sql.NullString
	Website     sql.NullString
	JoinedAt    time.Time
	Followers   sql.NullInt64
	Following   sql.NullInt64
	PublicRepos sql.NullInt64
	IsVerified  sql.NullBool
}

// IdeaRow is the raw shape of an ideas-table row, joined with its author row
// and an optional viewer membership check against the stars relation.
//
// Tags are stored as a JSON-encoded TEXT column (SQLite has no array type).
// IsStarred carries the viewer-relative flag when the query joined against a
// known viewer; Valid=false means no viewer was known and the flag defaults
// to false.
type IdeaRow struct {
	ID          string
	Title       string
	Description string
	Content     string
	Author      UserRow
	TagsJSON    sql.NullString
	Category    sql.NullString
	License     sql.NullString
	Version     sql.NullString
	Stars       sql.NullInt64
	Forks       sql.NullInt64
	IsStarred   sql.NullBool
	IsFork      sql.NullBool
	ForkedFrom  sql.NullString
	Visibility  string
	Status      string
	Language    sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BasicIdeaRow is the minimal projection the activity feed selects:
// id, title, author, and creation time.
type BasicIdeaRow struct {
	ID        string
	Title     string
	Author    UserRow
	CreatedAt time.Time
}

// ToUser converts a users-table row into a model.User.
func ToUser(row UserRow) model.User {
	return model.User{
		ID:          row.ID,
		Username:    row.Username,
		Email:       row.Email,
		FullName:    row.FullName,
		Avatar:      row.AvatarURL.String,
		Bio:         row.Bio.String,
		Location:    row.Location.String,
		Website:     row.Website.String,
		JoinedAt:    row.JoinedAt,
		Followers:   int(row.Followers.Int64),
		Following:   int(row.Following.Int64),
		PublicRepos: int(row.PublicRepos.Int64),
		IsVerified:  row.IsVerified.Bool,
	}
}

// ToIdea converts an ideas-table row into a model.Idea.
//
// Malformed or absent tag JSON degrades to an empty list rather than an
// error — a bad row must never take down a whole listing. The placeholder
// sub-collections (collaborators, comments, issues) are always empty,
// non-nil slices so they serialize as [] instead of null.
func ToIdea(row IdeaRow) model.Idea {
	return model.Idea{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		Content:       row.Content,
		Author:        ToUser(row.Author),
		Tags:          decodeTags(row.TagsJSON),
		Category:      row.Category.String,
		License:       row.License.String,
		Version:       row.Version.String,
		Stars:         int(row.Stars.Int64),
		Forks:         int(row.Forks.Int64),
		IsStarred:     row.IsStarred.Valid && row.IsStarred.Bool,
		IsFork:        row.IsFork.Valid && row.IsFork.Bool,
		ForkedFrom:    row.ForkedFrom.String,
		Visibility:    model.Visibility(row.Visibility),
		Status:        model.Status(row.Status),
		Language:      row.Language.String,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Collaborators: []model.User{},
		Comments:      []model.Comment{},
		Issues:        []model.Issue{},
	}
}

// ToBasicIdea builds a zero-filled placeholder idea for activity-feed
// contexts where only id, title, author, and creation time are known.
// UpdatedAt mirrors CreatedAt; visibility and status take the values the
// feed query already filtered on.
func ToBasicIdea(row BasicIdeaRow) model.Idea {
	return model.Idea{
		ID:            row.ID,
		Title:         row.Title,
		Author:        ToUser(row.Author),
		Tags:          []string{},
		Visibility:    model.VisibilityPublic,
		Status:        model.StatusPublished,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.CreatedAt,
		Collaborators: []model.User{},
		Comments:      []model.Comment{},
		Issues:        []model.Issue{},
	}
}

// EncodeTags serializes a tag list for storage. The inverse of decodeTags;
// nil encodes the same as an empty list.
func EncodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		// []string cannot fail to marshal; keep the signature error-free.
		return "[]"
	}
	return string(b)
}

func decodeTags(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
