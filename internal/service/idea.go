package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/identity"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
)

// Validation constants.
const (
	MaxIdeaTitleLength       = 200
	MaxIdeaDescriptionLength = 2000
	MaxIdeaContentLength     = 100000 // ~100KB
)

// DefaultLicense is applied when a create request carries no license.
const DefaultLicense = "MIT"

// IdeaInput carries the client-settable fields of an idea, for both create
// and update. Pointer fields distinguish "absent" from "set to zero" on
// update; on create, absent fields take documented defaults. Counters, the
// author, and fork lineage are never client-settable.
type IdeaInput struct {
	Title       *string
	Description *string
	Content     *string
	Tags        []string
	Category    *string
	License     *string
	Visibility  *model.Visibility
	Status      *model.Status
	Language    *string
}

// IdeaService handles business logic for ideas: listing, CRUD, starring,
// and forking. Reads are viewer-relative — the caller's identity (if any)
// decides the IsStarred flag on every returned idea.
type IdeaService struct {
	ideas  repository.IdeaRepository
	stars  repository.StarRepository
	logger *slog.Logger
}

// NewIdeaService creates a new IdeaService.
func NewIdeaService(ideas repository.IdeaRepository, stars repository.StarRepository, logger *slog.Logger) *IdeaService {
	return &IdeaService{
		ideas:  ideas,
		stars:  stars,
		logger: logger,
	}
}

// List returns public, published ideas matching the filter. Category and
// Language of "all" or empty are unfiltered; Query matches title or
// description case-insensitively; Sort defaults to newest.
func (s *IdeaService) List(ctx context.Context, filter repository.IdeaFilter) ([]model.Idea, error) {
	viewerID, _ := identity.FromContext(ctx)
	return s.ideas.List(ctx, filter, viewerID)
}

// Get fetches a single idea by ID. A missing key is apperror.ErrNotFound,
// never a nil success.
func (s *IdeaService) Get(ctx context.Context, id string) (*model.Idea, error) {
	viewerID, _ := identity.FromContext(ctx)
	return s.ideas.Get(ctx, id, viewerID)
}

// Create validates and saves a new idea authored by the caller. Absent
// fields default: tags to empty, license to MIT, visibility to public,
// status to published. The new row starts with zero counters and is not
// starred by anyone.
func (s *IdeaService) Create(ctx context.Context, in IdeaInput) (*model.Idea, error) {
	authorID, ok := identity.FromContext(ctx)
	if !ok {
		return nil, apperror.Unauthenticated("create an idea")
	}

	title := strings.TrimSpace(deref(in.Title))
	if title == "" {
		return nil, apperror.ValidationFailed("title", "idea title is required")
	}
	if len(title) > MaxIdeaTitleLength {
		return nil, apperror.ValidationFailed("title", "idea title is too long")
	}
	if len(deref(in.Description)) > MaxIdeaDescriptionLength {
		return nil, apperror.ValidationFailed("description", "idea description is too long")
	}
	if len(deref(in.Content)) > MaxIdeaContentLength {
		return nil, apperror.ValidationFailed("content", "idea content is too long")
	}

	visibility := model.VisibilityPublic
	if in.Visibility != nil {
		visibility = *in.Visibility
	}
	if err := validVisibility(visibility); err != nil {
		return nil, err
	}

	status := model.StatusPublished
	if in.Status != nil {
		status = *in.Status
	}
	if err := validStatus(status); err != nil {
		return nil, err
	}

	license := deref(in.License)
	if license == "" {
		license = DefaultLicense
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	idea, err := s.ideas.Create(ctx, repository.NewIdea{
		Title:       title,
		Description: deref(in.Description),
		Content:     deref(in.Content),
		AuthorID:    authorID,
		Tags:        tags,
		Category:    deref(in.Category),
		License:     license,
		Visibility:  visibility,
		Status:      status,
		Language:    deref(in.Language),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("idea created",
		slog.String("ideaID", idea.ID),
		slog.String("authorID", authorID),
	)
	return idea, nil
}

// Update applies a partial update to an idea's mutable fields. Counters,
// the author, and fork lineage cannot be changed through this path.
func (s *IdeaService) Update(ctx context.Context, id string, in IdeaInput) (*model.Idea, error) {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "idea title cannot be empty")
		}
		if len(title) > MaxIdeaTitleLength {
			return nil, apperror.ValidationFailed("title", "idea title is too long")
		}
		in.Title = &title
	}
	if in.Visibility != nil {
		if err := validVisibility(*in.Visibility); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if err := validStatus(*in.Status); err != nil {
			return nil, err
		}
	}

	idea, err := s.ideas.Update(ctx, id, repository.IdeaUpdate{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Tags:        in.Tags,
		Category:    in.Category,
		License:     in.License,
		Visibility:  in.Visibility,
		Language:    in.Language,
		Status:      in.Status,
	})
	if err != nil {
		return nil, err
	}

	viewerID, _ := identity.FromContext(ctx)
	if viewerID != "" {
		starred, err := s.stars.IsStarred(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		idea.IsStarred = starred
	}
	return idea, nil
}

// Delete removes an idea and, through the store's cascade, its star rows.
// The deletion is hard: there is no tombstone and no undo.
func (s *IdeaService) Delete(ctx context.Context, id string) error {
	if err := s.ideas.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("idea deleted", slog.String("ideaID", id))
	return nil
}

// ToggleStar flips the caller's star on an idea and returns the new
// membership state. The repository performs the flip and the counter
// adjustment in one transaction, so the stars counter always equals the
// number of star rows.
func (s *IdeaService) ToggleStar(ctx context.Context, ideaID string) (bool, error) {
	userID, ok := identity.FromContext(ctx)
	if !ok {
		return false, apperror.Unauthenticated("star an idea")
	}
	return s.stars.Toggle(ctx, userID, ideaID)
}

// Fork copies an idea for the caller. The copy keeps the source's content
// fields, takes the title with a " (Fork)" suffix, is forced public, and
// records its lineage; the source's fork counter is then incremented
// atomically in the store, so N concurrent forks add exactly N.
func (s *IdeaService) Fork(ctx context.Context, ideaID string) (*model.Idea, error) {
	userID, ok := identity.FromContext(ctx)
	if !ok {
		return nil, apperror.Unauthenticated("fork an idea")
	}

	source, err := s.ideas.Get(ctx, ideaID, userID)
	if err != nil {
		return nil, err
	}

	fork, err := s.ideas.Create(ctx, repository.NewIdea{
		Title:       source.Title + " (Fork)",
		Description: source.Description,
		Content:     source.Content,
		AuthorID:    userID,
		Tags:        source.Tags,
		Category:    source.Category,
		License:     source.License,
		Visibility:  model.VisibilityPublic,
		Status:      model.StatusPublished,
		Language:    source.Language,
		IsFork:      true,
		ForkedFrom:  source.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ideas.IncrementForks(ctx, source.ID); err != nil {
		return nil, err
	}

	s.logger.Info("idea forked",
		slog.String("sourceID", source.ID),
		slog.String("forkID", fork.ID),
		slog.String("userID", userID),
	)
	return fork, nil
}

// ListStarred returns the ideas a user has starred.
func (s *IdeaService) ListStarred(ctx context.Context, userID string) ([]model.Idea, error) {
	return s.ideas.ListStarred(ctx, userID)
}

// ListForked returns the forks a user has created.
func (s *IdeaService) ListForked(ctx context.Context, userID string) ([]model.Idea, error) {
	viewerID, _ := identity.FromContext(ctx)
	return s.ideas.ListForked(ctx, userID, viewerID)
}

// ListByAuthor returns a user's public, published ideas, newest first.
func (s *IdeaService) ListByAuthor(ctx context.Context, userID string) ([]model.Idea, error) {
	viewerID, _ := identity.FromContext(ctx)
	return s.ideas.ListByAuthor(ctx, userID, viewerID)
}

// Popular returns the ten most-starred public, published ideas.
func (s *IdeaService) Popular(ctx context.Context) ([]model.Idea, error) {
	viewerID, _ := identity.FromContext(ctx)
	return s.ideas.Popular(ctx, viewerID)
}

func validVisibility(v model.Visibility) error {
	switch v {
	case model.VisibilityPublic, model.VisibilityPrivate:
		return nil
	}
	return apperror.ValidationFailed("visibility", "visibility must be public or private")
}

func validStatus(st model.Status) error {
	switch st {
	case model.StatusDraft, model.StatusPublished, model.StatusArchived:
		return nil
	}
	return apperror.ValidationFailed("status", "status must be draft, published, or archived")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
