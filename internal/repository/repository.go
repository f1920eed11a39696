// Package repository defines the store-boundary interfaces.
//
// Services depend on these interfaces, never on the concrete SQLite types —
// tests inject in-memory mocks and the storage engine can be swapped in one
// place (the composition root). Every method may fail with a store-level
// error; implementations translate "no rows" into apperror.ErrNotFound and
// everything else into apperror.ErrStore with the cause preserved.
package repository

import (
	"context"
	"time"

	"github.com/sakif/ideahub/internal/model"
)

// Sort orders for idea listings. Exactly one ordering is applied per query;
// rows with equal sort keys come back in the store's natural order, which is
// NOT deterministic across runs.
const (
	SortNewest          = "newest"
	SortOldest          = "oldest"
	SortMostStars       = "most-stars"
	SortMostForks       = "most-forks"
	SortRecentlyUpdated = "recently-updated"
)

// IdeaFilter narrows and orders a public idea listing.
//
// Category and Language of "all" or empty mean unfiltered. Query performs a
// case-insensitive substring match against title OR description. Sort
// defaults to newest. Limit bounds the result set after ordering; zero means
// unbounded. Only public, published rows are ever eligible.
type IdeaFilter struct {
	Category string
	Language string
	Query    string
	Sort     string
	Limit    int
}

// NewIdea is the typed insert request for an idea row. The repository
// generates the ID and timestamps and returns the created entity with its
// author expanded.
type NewIdea struct {
	Title       string
	Description string
	Content     string
	AuthorID    string
	Tags        []string
	Category    string
	License     string
	Visibility  model.Visibility
	Status      model.Status
	Language    string
	IsFork      bool
	ForkedFrom  string
}

// IdeaUpdate is a partial update of an idea's mutable fields. Nil means
// "leave unchanged". Counters (stars, forks), author, and fork lineage are
// store-owned and deliberately absent.
type IdeaUpdate struct {
	Title       *string
	Description *string
	Content     *string
	Tags        []string
	Category    *string
	License     *string
	Visibility  *model.Visibility
	Language    *string
	Status      *model.Status
}

// IdentityRecord is an identities-table row for the local identity provider.
// EmailConfirmedAt is nil until the identity confirms; profile creation is
// gated on it.
type IdentityRecord struct {
	ID               string
	Email            string
	PasswordHash     string
	Username         string
	FullName         string
	Provider         string
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
}

type UserRepository interface {
	// Create inserts a profile row keyed by the identity's ID. A primary-key
	// conflict reports apperror.ErrConflict so idempotent callers can treat
	// it as "already exists".
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type IdeaRepository interface {
	Create(ctx context.Context, in NewIdea) (*model.Idea, error)
	// Get reports apperror.ErrNotFound for a missing key — never (nil, nil).
	Get(ctx context.Context, id, viewerID string) (*model.Idea, error)
	List(ctx context.Context, filter IdeaFilter, viewerID string) ([]model.Idea, error)
	Update(ctx context.Context, id string, upd IdeaUpdate) (*model.Idea, error)
	Delete(ctx context.Context, id string) error
	// IncrementForks atomically adds one to the fork counter in the store.
	// N concurrent increments always total N — no read-modify-write races.
	IncrementForks(ctx context.Context, id string) error
	ListStarred(ctx context.Context, userID string) ([]model.Idea, error)
	ListForked(ctx context.Context, userID, viewerID string) ([]model.Idea, error)
	ListByAuthor(ctx context.Context, userID, viewerID string) ([]model.Idea, error)
	Popular(ctx context.Context, viewerID string) ([]model.Idea, error)
}

type StarRepository interface {
	// Toggle flips the (userID, ideaID) membership in one transaction,
	// adjusting the idea's stars counter in the same step so the counter
	// always equals the relation's cardinality. Returns the new membership
	// state: true if the idea is now starred by the user.
	Toggle(ctx context.Context, userID, ideaID string) (bool, error)
	IsStarred(ctx context.Context, userID, ideaID string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type StatsRepository interface {
	CountPublishedIdeas(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)
	CountIdeasCreatedSince(ctx context.Context, since time.Time) (int, error)
	SumPublishedForks(ctx context.Context) (int, error)
	// UserIdeaTotals returns the count of the user's authored ideas and the
	// sums of their stars and forks counters.
	UserIdeaTotals(ctx context.Context, userID string) (ideas, stars, forks int, err error)
}

type IdentityRepository interface {
	CreateIdentity(ctx context.Context, rec *IdentityRecord) error
	GetIdentityByEmail(ctx context.Context, email string) (*IdentityRecord, error)
	GetIdentityByID(ctx context.Context, id string) (*IdentityRecord, error)
	ConfirmIdentity(ctx context.Context, id string, at time.Time) error
	// UpsertOAuthIdentity creates or refreshes an identity for an external
	// OAuth account, keyed by email. OAuth identities are always confirmed.
	UpsertOAuthIdentity(ctx context.Context, rec *IdentityRecord) error
}

// KVRepository is a small explicit key-value store for client preferences
// (e.g. theme), replacing ambient client-side state.
type KVRepository interface {
	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key, value string) error
}
