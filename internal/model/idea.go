package model

import "time"

// Visibility controls who can see an idea.
type Visibility string

// Status is the lifecycle stage of an idea's content.
type Status string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"

	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Idea is the platform's core shareable content unit.
//
// Stars and Forks are store-owned counters: they are adjusted only inside
// the star-toggle transaction and the atomic fork increment, and always
// equal the cardinality of their backing relations (star rows, fork
// children). Update requests cannot set them.
//
// IsStarred is viewer-relative and never persisted — it reports whether the
// current viewer has a row in the stars relation for this idea, and is
// false for anonymous viewers.
//
// Invariant: IsFork is true exactly when ForkedFrom is non-empty. A fork's
// parent must exist before the fork is created, so the lineage is acyclic
// by construction.
//
// Collaborators, Comments, and Issues are placeholder sub-collections:
// the data model reserves them but no workflow in this layer populates them.
type Idea struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Author      User       `json:"author"`
	Tags        []string   `json:"tags"`
	Category    string     `json:"category"`
	License     string     `json:"license"`
	Version     string     `json:"version"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	IsStarred   bool       `json:"isStarred"`
	IsFork      bool       `json:"isFork"`
	ForkedFrom  string     `json:"forkedFrom,omitempty"`
	Visibility  Visibility `json:"visibility"`
	Status      Status     `json:"status"`
	Language    string     `json:"language,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Collaborators []User    `json:"collaborators"`
	Comments      []Comment `json:"comments"`
	Issues        []Issue   `json:"issues"`
}

// Comment is reserved for the idea discussion data model.
// Threading, moderation, and voting live outside this layer.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Issue is reserved for the idea issue-tracker data model.
type Issue struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      User      `json:"author"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
