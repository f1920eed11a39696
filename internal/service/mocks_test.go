package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
)

// mockStore is an in-memory stand-in for the idea, star, and stats
// repositories. A single struct backs all three interfaces so the tests get
// the same cross-table consistency the real store provides: toggling a star
// moves the counter, forking bumps the fork count.
type mockStore struct {
	ideas  map[string]*model.Idea
	stars  map[string]map[string]bool // userID -> ideaID -> starred
	users  int
	nextID int

	lastListFilter repository.IdeaFilter
}

func newMockStore() *mockStore {
	return &mockStore{
		ideas: make(map[string]*model.Idea),
		stars: make(map[string]map[string]bool),
	}
}

var (
	_ repository.IdeaRepository  = (*mockStore)(nil)
	_ repository.StarRepository  = (*mockStore)(nil)
	_ repository.StatsRepository = (*mockStore)(nil)
)

func (m *mockStore) Create(_ context.Context, in repository.NewIdea) (*model.Idea, error) {
	m.nextID++
	now := time.Now()
	idea := &model.Idea{
		ID:            fmt.Sprintf("idea-%d", m.nextID),
		Title:         in.Title,
		Description:   in.Description,
		Content:       in.Content,
		Author:        model.User{ID: in.AuthorID},
		Tags:          append([]string{}, in.Tags...),
		Category:      in.Category,
		License:       in.License,
		Visibility:    in.Visibility,
		Status:        in.Status,
		Language:      in.Language,
		IsFork:        in.IsFork,
		ForkedFrom:    in.ForkedFrom,
		CreatedAt:     now,
		UpdatedAt:     now,
		Collaborators: []model.User{},
		Comments:      []model.Comment{},
		Issues:        []model.Issue{},
	}
	stored := *idea
	m.ideas[idea.ID] = &stored
	return idea, nil
}

func (m *mockStore) Get(_ context.Context, id, viewerID string) (*model.Idea, error) {
	idea, ok := m.ideas[id]
	if !ok {
		return nil, apperror.NotFound("idea", id)
	}
	result := *idea
	result.IsStarred = viewerID != "" && m.stars[viewerID][id]
	return &result, nil
}

func (m *mockStore) List(_ context.Context, filter repository.IdeaFilter, viewerID string) ([]model.Idea, error) {
	m.lastListFilter = filter
	result := make([]model.Idea, 0, len(m.ideas))
	for _, idea := range m.ideas {
		if idea.Visibility != model.VisibilityPublic || idea.Status != model.StatusPublished {
			continue
		}
		if filter.Category != "" && filter.Category != "all" && idea.Category != filter.Category {
			continue
		}
		if filter.Language != "" && filter.Language != "all" && idea.Language != filter.Language {
			continue
		}
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			if !strings.Contains(strings.ToLower(idea.Title), q) &&
				!strings.Contains(strings.ToLower(idea.Description), q) {
				continue
			}
		}
		row := *idea
		row.IsStarred = viewerID != "" && m.stars[viewerID][idea.ID]
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		switch filter.Sort {
		case repository.SortOldest:
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		case repository.SortMostStars:
			return result[i].Stars > result[j].Stars
		case repository.SortMostForks:
			return result[i].Forks > result[j].Forks
		case repository.SortRecentlyUpdated:
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		default:
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockStore) Update(_ context.Context, id string, upd repository.IdeaUpdate) (*model.Idea, error) {
	idea, ok := m.ideas[id]
	if !ok {
		return nil, apperror.NotFound("idea", id)
	}
	if upd.Title != nil {
		idea.Title = *upd.Title
	}
	if upd.Description != nil {
		idea.Description = *upd.Description
	}
	if upd.Content != nil {
		idea.Content = *upd.Content
	}
	if upd.Tags != nil {
		idea.Tags = append([]string{}, upd.Tags...)
	}
	if upd.Category != nil {
		idea.Category = *upd.Category
	}
	if upd.License != nil {
		idea.License = *upd.License
	}
	if upd.Visibility != nil {
		idea.Visibility = *upd.Visibility
	}
	if upd.Language != nil {
		idea.Language = *upd.Language
	}
	if upd.Status != nil {
		idea.Status = *upd.Status
	}
	idea.UpdatedAt = time.Now()
	result := *idea
	return &result, nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	if _, ok := m.ideas[id]; !ok {
		return apperror.NotFound("idea", id)
	}
	delete(m.ideas, id)
	for _, byIdea := range m.stars {
		delete(byIdea, id)
	}
	return nil
}

func (m *mockStore) IncrementForks(_ context.Context, id string) error {
	idea, ok := m.ideas[id]
	if !ok {
		return apperror.NotFound("idea", id)
	}
	idea.Forks++
	return nil
}

func (m *mockStore) ListStarred(_ context.Context, userID string) ([]model.Idea, error) {
	result := []model.Idea{}
	for ideaID, starred := range m.stars[userID] {
		if !starred {
			continue
		}
		if idea, ok := m.ideas[ideaID]; ok {
			row := *idea
			row.IsStarred = true
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *mockStore) ListForked(_ context.Context, userID, viewerID string) ([]model.Idea, error) {
	result := []model.Idea{}
	for _, idea := range m.ideas {
		if idea.IsFork && idea.Author.ID == userID {
			row := *idea
			row.IsStarred = viewerID != "" && m.stars[viewerID][idea.ID]
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *mockStore) ListByAuthor(ctx context.Context, userID, viewerID string) ([]model.Idea, error) {
	all, _ := m.List(ctx, repository.IdeaFilter{Sort: repository.SortNewest}, viewerID)
	result := []model.Idea{}
	for _, idea := range all {
		if idea.Author.ID == userID {
			result = append(result, idea)
		}
	}
	return result, nil
}

func (m *mockStore) Popular(ctx context.Context, viewerID string) ([]model.Idea, error) {
	all, err := m.List(ctx, repository.IdeaFilter{Sort: repository.SortMostStars}, viewerID)
	if err != nil {
		return nil, err
	}
	if len(all) > 10 {
		all = all[:10]
	}
	return all, nil
}

func (m *mockStore) Toggle(_ context.Context, userID, ideaID string) (bool, error) {
	idea, ok := m.ideas[ideaID]
	if !ok {
		return false, apperror.NotFound("idea", ideaID)
	}
	if m.stars[userID] == nil {
		m.stars[userID] = make(map[string]bool)
	}
	if m.stars[userID][ideaID] {
		delete(m.stars[userID], ideaID)
		idea.Stars--
		return false, nil
	}
	m.stars[userID][ideaID] = true
	idea.Stars++
	return true, nil
}

func (m *mockStore) IsStarred(_ context.Context, userID, ideaID string) (bool, error) {
	return m.stars[userID][ideaID], nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	total := 0
	for _, byIdea := range m.stars {
		total += len(byIdea)
	}
	return total, nil
}

func (m *mockStore) CountPublishedIdeas(_ context.Context) (int, error) {
	count := 0
	for _, idea := range m.ideas {
		if idea.Visibility == model.VisibilityPublic && idea.Status == model.StatusPublished {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) CountUsers(_ context.Context) (int, error) {
	return m.users, nil
}

func (m *mockStore) CountIdeasCreatedSince(_ context.Context, since time.Time) (int, error) {
	count := 0
	for _, idea := range m.ideas {
		if !idea.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) SumPublishedForks(_ context.Context) (int, error) {
	sum := 0
	for _, idea := range m.ideas {
		if idea.Visibility == model.VisibilityPublic && idea.Status == model.StatusPublished {
			sum += idea.Forks
		}
	}
	return sum, nil
}

func (m *mockStore) UserIdeaTotals(_ context.Context, userID string) (int, int, int, error) {
	ideas, stars, forks := 0, 0, 0
	for _, idea := range m.ideas {
		if idea.Author.ID != userID {
			continue
		}
		ideas++
		stars += idea.Stars
		forks += idea.Forks
	}
	return ideas, stars, forks, nil
}

// mockUserRepo is an in-memory repository.UserRepository.
type mockUserRepo struct {
	profiles map[string]*model.User
	creates  int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{profiles: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.creates++
	if _, ok := m.profiles[user.ID]; ok {
		return apperror.Conflict("user", user.ID)
	}
	stored := *user
	m.profiles[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.profiles[id]
	return ok, nil
}

// mockIdentityStore is an in-memory repository.IdentityRepository, so the
// identity-service tests can run over the real LocalProvider.
type mockIdentityStore struct {
	byID   map[string]*repository.IdentityRecord
	nextID int
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{byID: make(map[string]*repository.IdentityRecord)}
}

func (m *mockIdentityStore) CreateIdentity(_ context.Context, rec *repository.IdentityRecord) error {
	for _, existing := range m.byID {
		if existing.Email == rec.Email {
			return apperror.Conflict("identity", rec.Email)
		}
	}
	m.nextID++
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("identity-%d", m.nextID)
	}
	rec.CreatedAt = time.Now()
	stored := *rec
	m.byID[rec.ID] = &stored
	return nil
}

func (m *mockIdentityStore) GetIdentityByEmail(_ context.Context, email string) (*repository.IdentityRecord, error) {
	for _, rec := range m.byID {
		if rec.Email == email {
			result := *rec
			return &result, nil
		}
	}
	return nil, apperror.NotFound("identity", email)
}

func (m *mockIdentityStore) GetIdentityByID(_ context.Context, id string) (*repository.IdentityRecord, error) {
	rec, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("identity", id)
	}
	result := *rec
	return &result, nil
}

func (m *mockIdentityStore) ConfirmIdentity(_ context.Context, id string, at time.Time) error {
	rec, ok := m.byID[id]
	if !ok {
		return apperror.NotFound("identity", id)
	}
	rec.EmailConfirmedAt = &at
	return nil
}

func (m *mockIdentityStore) UpsertOAuthIdentity(ctx context.Context, rec *repository.IdentityRecord) error {
	for _, existing := range m.byID {
		if existing.Email == rec.Email {
			rec.ID = existing.ID
			rec.EmailConfirmedAt = existing.EmailConfirmedAt
			if rec.EmailConfirmedAt == nil {
				now := time.Now()
				rec.EmailConfirmedAt = &now
			}
			existing.Username = rec.Username
			existing.Provider = rec.Provider
			existing.EmailConfirmedAt = rec.EmailConfirmedAt
			return nil
		}
	}
	now := time.Now()
	rec.EmailConfirmedAt = &now
	return m.CreateIdentity(ctx, rec)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func ptr[T any](v T) *T { return &v }
