package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
	"github.com/sakif/ideahub/internal/service"
)

// IdeaHandler exposes the idea listing, CRUD, star, and fork endpoints.
type IdeaHandler struct {
	ideas  *service.IdeaService
	logger *slog.Logger
}

// NewIdeaHandler creates a new IdeaHandler.
func NewIdeaHandler(ideas *service.IdeaService, logger *slog.Logger) *IdeaHandler {
	return &IdeaHandler{
		ideas:  ideas,
		logger: logger,
	}
}

// ideaRequest is the JSON body for create and update. Pointer fields let
// updates distinguish "absent" from "set to empty".
type ideaRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Content     *string  `json:"content"`
	Tags        []string `json:"tags"`
	Category    *string  `json:"category"`
	License     *string  `json:"license"`
	Visibility  *string  `json:"visibility"`
	Status      *string  `json:"status"`
	Language    *string  `json:"language"`
}

func (req ideaRequest) toInput() service.IdeaInput {
	in := service.IdeaInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Tags:        req.Tags,
		Category:    req.Category,
		License:     req.License,
		Language:    req.Language,
	}
	if req.Visibility != nil {
		v := model.Visibility(*req.Visibility)
		in.Visibility = &v
	}
	if req.Status != nil {
		st := model.Status(*req.Status)
		in.Status = &st
	}
	return in
}

// HandleList returns public published ideas, filtered and sorted by query
// parameters: category, language, q, sort.
//
// HTTP: GET /api/ideas?category=software&language=go&q=solar&sort=most-stars
func (h *IdeaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ideas, err := h.ideas.List(r.Context(), repository.IdeaFilter{
		Category: q.Get("category"),
		Language: q.Get("language"),
		Query:    q.Get("q"),
		Sort:     q.Get("sort"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ideas, "")
}

// HandleGet returns a single idea.
//
// HTTP: GET /api/ideas/{id}
func (h *IdeaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	idea, err := h.ideas.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, idea, "")
}

// HandleCreate saves a new idea authored by the caller.
//
// HTTP: POST /api/ideas
func (h *IdeaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	idea, err := h.ideas.Create(r.Context(), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, idea, "idea created")
}

// HandleUpdate applies a partial update to an idea.
//
// HTTP: PUT /api/ideas/{id}
func (h *IdeaHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	idea, err := h.ideas.Update(r.Context(), r.PathValue("id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, idea, "idea updated")
}

// HandleDelete removes an idea.
//
// HTTP: DELETE /api/ideas/{id}
func (h *IdeaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ideas.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "idea deleted")
}

// HandleToggleStar flips the caller's star on an idea and reports the new
// membership state.
//
// HTTP: POST /api/ideas/{id}/star
func (h *IdeaHandler) HandleToggleStar(w http.ResponseWriter, r *http.Request) {
	starred, err := h.ideas.ToggleStar(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	message := "idea unstarred"
	if starred {
		message = "idea starred"
	}
	writeData(w, http.StatusOK, map[string]bool{"starred": starred}, message)
}

// HandleFork copies an idea for the caller.
//
// HTTP: POST /api/ideas/{id}/fork
func (h *IdeaHandler) HandleFork(w http.ResponseWriter, r *http.Request) {
	fork, err := h.ideas.Fork(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, fork, "idea forked")
}

// HandlePopular returns the ten most-starred public ideas.
//
// HTTP: GET /api/ideas/popular
func (h *IdeaHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideas.Popular(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ideas, "")
}

// HandleListStarred returns the ideas a user has starred.
//
// HTTP: GET /api/users/{id}/starred
func (h *IdeaHandler) HandleListStarred(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideas.ListStarred(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ideas, "")
}

// HandleListForked returns the forks a user has created.
//
// HTTP: GET /api/users/{id}/forked
func (h *IdeaHandler) HandleListForked(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideas.ListForked(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ideas, "")
}

// HandleListByAuthor returns a user's public published ideas.
//
// HTTP: GET /api/users/{id}/ideas
func (h *IdeaHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideas.ListByAuthor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ideas, "")
}
