package model

import "time"

// Star records that a user has starred an idea.
//
// A star is a set-membership fact, not a counter: at most one row exists per
// (UserID, IdeaID) pair, enforced by a unique index in the store. Rows are
// created and destroyed by the toggle; they are never updated. The relation
// is the source of truth for both the viewer-relative IsStarred flag and the
// stars counter on the idea row.
type Star struct {
	ID        string    `json:"id"      db:"id"`
	UserID    string    `json:"userId"  db:"user_id"`
	IdeaID    string    `json:"ideaId"  db:"idea_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
