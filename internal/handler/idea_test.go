package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/handler"
	"github.com/sakif/ideahub/internal/identity"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
	"github.com/sakif/ideahub/internal/service"
)

// fakeStore implements just enough of the idea and star repositories to
// drive the handlers through real services.
type fakeStore struct {
	ideas   map[string]*model.Idea
	starred map[string]bool // userID|ideaID
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ideas:   make(map[string]*model.Idea),
		starred: make(map[string]bool),
	}
}

func (f *fakeStore) Create(_ context.Context, in repository.NewIdea) (*model.Idea, error) {
	f.nextID++
	now := time.Now()
	idea := &model.Idea{
		ID:            "idea-" + strconv.Itoa(f.nextID),
		Title:         in.Title,
		Description:   in.Description,
		Content:       in.Content,
		Author:        model.User{ID: in.AuthorID},
		Tags:          in.Tags,
		License:       in.License,
		Visibility:    in.Visibility,
		Status:        in.Status,
		IsFork:        in.IsFork,
		ForkedFrom:    in.ForkedFrom,
		CreatedAt:     now,
		UpdatedAt:     now,
		Collaborators: []model.User{},
		Comments:      []model.Comment{},
		Issues:        []model.Issue{},
	}
	f.ideas[idea.ID] = idea
	result := *idea
	return &result, nil
}

func (f *fakeStore) Get(_ context.Context, id, viewerID string) (*model.Idea, error) {
	idea, ok := f.ideas[id]
	if !ok {
		return nil, apperror.NotFound("idea", id)
	}
	result := *idea
	result.IsStarred = f.starred[viewerID+"|"+id]
	return &result, nil
}

func (f *fakeStore) List(_ context.Context, _ repository.IdeaFilter, _ string) ([]model.Idea, error) {
	result := []model.Idea{}
	for _, idea := range f.ideas {
		result = append(result, *idea)
	}
	return result, nil
}

func (f *fakeStore) Update(_ context.Context, id string, upd repository.IdeaUpdate) (*model.Idea, error) {
	idea, ok := f.ideas[id]
	if !ok {
		return nil, apperror.NotFound("idea", id)
	}
	if upd.Title != nil {
		idea.Title = *upd.Title
	}
	result := *idea
	return &result, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.ideas[id]; !ok {
		return apperror.NotFound("idea", id)
	}
	delete(f.ideas, id)
	return nil
}

func (f *fakeStore) IncrementForks(_ context.Context, id string) error {
	idea, ok := f.ideas[id]
	if !ok {
		return apperror.NotFound("idea", id)
	}
	idea.Forks++
	return nil
}

func (f *fakeStore) ListStarred(_ context.Context, _ string) ([]model.Idea, error) {
	return []model.Idea{}, nil
}

func (f *fakeStore) ListForked(_ context.Context, _, _ string) ([]model.Idea, error) {
	return []model.Idea{}, nil
}

func (f *fakeStore) ListByAuthor(_ context.Context, _, _ string) ([]model.Idea, error) {
	return []model.Idea{}, nil
}

func (f *fakeStore) Popular(_ context.Context, _ string) ([]model.Idea, error) {
	return []model.Idea{}, nil
}

func (f *fakeStore) Toggle(_ context.Context, userID, ideaID string) (bool, error) {
	idea, ok := f.ideas[ideaID]
	if !ok {
		return false, apperror.NotFound("idea", ideaID)
	}
	key := userID + "|" + ideaID
	if f.starred[key] {
		delete(f.starred, key)
		idea.Stars--
		return false, nil
	}
	f.starred[key] = true
	idea.Stars++
	return true, nil
}

func (f *fakeStore) IsStarred(_ context.Context, userID, ideaID string) (bool, error) {
	return f.starred[userID+"|"+ideaID], nil
}

func (f *fakeStore) Count(_ context.Context) (int, error) {
	return len(f.starred), nil
}

func newIdeaHandler(t *testing.T) (*handler.IdeaHandler, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewIdeaService(store, store, logger)
	return handler.NewIdeaHandler(svc, logger), store
}

// envelope mirrors the ApiResponse shape for decoding in tests.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
}

func TestIdeaHandler_Create(t *testing.T) {
	h, _ := newIdeaHandler(t)

	t.Run("authenticated create returns envelope", func(t *testing.T) {
		body := `{"title":"Solar Kettle","description":"boils water"}`
		req := httptest.NewRequest(http.MethodPost, "/api/ideas", bytes.NewBufferString(body))
		req = req.WithContext(identity.WithIdentity(req.Context(), "user-1"))
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var env envelope
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
		assert.True(t, env.Success)
		assert.Equal(t, "idea created", env.Message)

		var idea model.Idea
		assert.NoError(t, json.Unmarshal(env.Data, &idea))
		assert.Equal(t, "Solar Kettle", idea.Title)
		assert.Equal(t, "MIT", idea.License)
		assert.Equal(t, model.VisibilityPublic, idea.Visibility)
	})

	t.Run("unauthenticated create is 401", func(t *testing.T) {
		body := `{"title":"anonymous"}`
		req := httptest.NewRequest(http.MethodPost, "/api/ideas", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "unauthenticated", errRes.Error)
	})

	t.Run("invalid JSON is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ideas", bytes.NewBufferString(`{"title":`))
		req = req.WithContext(identity.WithIdentity(req.Context(), "user-1"))
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing title is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ideas", bytes.NewBufferString(`{}`))
		req = req.WithContext(identity.WithIdentity(req.Context(), "user-1"))
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "validation_error", errRes.Error)
		assert.Equal(t, "title", errRes.Field)
	})
}

func TestIdeaHandler_Get(t *testing.T) {
	h, store := newIdeaHandler(t)

	created, err := store.Create(context.Background(), repository.NewIdea{
		Title:      "existing",
		Visibility: model.VisibilityPublic,
		Status:     model.StatusPublished,
	})
	assert.NoError(t, err)

	t.Run("existing idea", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ideas/"+created.ID, nil)
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		h.HandleGet(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var env envelope
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
		assert.True(t, env.Success)
	})

	t.Run("missing idea is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ideas/nope", nil)
		req.SetPathValue("id", "nope")
		rr := httptest.NewRecorder()

		h.HandleGet(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "not_found", errRes.Error)
	})
}

func TestIdeaHandler_ToggleStar(t *testing.T) {
	h, store := newIdeaHandler(t)

	created, err := store.Create(context.Background(), repository.NewIdea{
		Title:      "starrable",
		Visibility: model.VisibilityPublic,
		Status:     model.StatusPublished,
	})
	assert.NoError(t, err)

	toggle := func() (*httptest.ResponseRecorder, envelope) {
		req := httptest.NewRequest(http.MethodPost, "/api/ideas/"+created.ID+"/star", nil)
		req.SetPathValue("id", created.ID)
		req = req.WithContext(identity.WithIdentity(req.Context(), "user-1"))
		rr := httptest.NewRecorder()
		h.HandleToggleStar(rr, req)

		var env envelope
		_ = json.NewDecoder(rr.Body).Decode(&env)
		return rr, env
	}

	rr, env := toggle()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "idea starred", env.Message)
	assert.JSONEq(t, `{"starred":true}`, string(env.Data))

	rr, env = toggle()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "idea unstarred", env.Message)
	assert.JSONEq(t, `{"starred":false}`, string(env.Data))
}

func TestIdeaHandler_Fork(t *testing.T) {
	h, store := newIdeaHandler(t)

	created, err := store.Create(context.Background(), repository.NewIdea{
		Title:      "original",
		Visibility: model.VisibilityPublic,
		Status:     model.StatusPublished,
	})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/ideas/"+created.ID+"/fork", nil)
	req.SetPathValue("id", created.ID)
	req = req.WithContext(identity.WithIdentity(req.Context(), "forker"))
	rr := httptest.NewRecorder()

	h.HandleFork(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var env envelope
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&env))

	var fork model.Idea
	assert.NoError(t, json.Unmarshal(env.Data, &fork))
	assert.Equal(t, "original (Fork)", fork.Title)
	assert.True(t, fork.IsFork)
	assert.Equal(t, created.ID, fork.ForkedFrom)
	assert.Equal(t, 1, store.ideas[created.ID].Forks)
}
