// Package server is the composition root: it opens the database, wires
// repositories into services and services into handlers, and owns the HTTP
// server's lifecycle. Nothing else in the codebase knows the concrete
// storage type or the route table.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/ideahub/internal/handler"
	"github.com/sakif/ideahub/internal/identity"
	"github.com/sakif/ideahub/internal/middleware"
	sqliteRepo "github.com/sakif/ideahub/internal/repository/sqlite"
	"github.com/sakif/ideahub/internal/service"
)

// Config holds everything the server needs to start. It is assembled from
// the environment in main and passed down as one value.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// GitHub OAuth is optional; with empty credentials the OAuth routes
	// report not found.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// RequireConfirmation defers profile creation until email confirmation.
	RequireConfirmation bool

	// SecureCookies should be true behind TLS.
	SecureCookies bool

	// StatsRefreshInterval drives the background platform-stats cache.
	// Zero disables the refresher and the stats endpoint recomputes on
	// every request.
	StatsRefreshInterval time.Duration
}

// Server owns the router, the database connection, and the background
// stats refresher. The database is closed during graceful shutdown.
type Server struct {
	router    *chi.Mux
	config    Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	refresher *service.Refresher
}

// New opens the database and assembles the full dependency chain:
// DB → repositories → identity provider → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := identity.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	provider := identity.NewLocalProvider(
		s.db.Identities(),
		tokens,
		identity.NewPasswordService(),
		s.config.RequireConfirmation,
		s.logger,
	)

	var github *identity.GitHubOAuth
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = identity.NewGitHubOAuth(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	identityService := service.NewIdentityService(provider, s.db.Users(), s.logger)
	ideaService := service.NewIdeaService(s.db.Ideas(), s.db.Stars(), s.logger)
	activityService := service.NewActivityService(s.db.Ideas(), s.logger)
	statsService := service.NewStatsService(s.db.Stats(), s.db.Stars(), s.logger)

	if s.config.StatsRefreshInterval > 0 {
		s.refresher = service.NewRefresher(statsService, s.config.StatsRefreshInterval, s.logger)
	}

	authHandler := handler.NewAuthHandler(identityService, github, s.config.SecureCookies, s.logger)
	ideaHandler := handler.NewIdeaHandler(ideaService, s.logger)
	activityHandler := handler.NewActivityHandler(activityService, s.logger)
	statsHandler := handler.NewStatsHandler(statsService, s.refresher, s.logger)
	prefsHandler := handler.NewPrefsHandler(s.db.KV(), s.logger)

	requireAuth := identity.RequireAuth(tokens)
	optionalAuth := identity.OptionalAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		// Public reads carry OptionalAuth so signed-in viewers get their
		// viewer-relative isStarred flags; anonymous requests still work.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/ideas", ideaHandler.HandleList)
			r.Get("/ideas/popular", ideaHandler.HandlePopular)
			r.Get("/ideas/{id}", ideaHandler.HandleGet)
			r.Get("/users/{id}/starred", ideaHandler.HandleListStarred)
			r.Get("/users/{id}/forked", ideaHandler.HandleListForked)
			r.Get("/users/{id}/ideas", ideaHandler.HandleListByAuthor)
			r.Get("/users/{id}/activity", activityHandler.HandleUserFeed)
			r.Get("/users/{id}/stats", statsHandler.HandleUserStats)
			r.Get("/activity", activityHandler.HandleGlobalFeed)
			r.Get("/stats/platform", statsHandler.HandlePlatform)
			r.Get("/prefs/{key}", prefsHandler.HandleGet)
			r.Put("/prefs/{key}", prefsHandler.HandleSet)
		})

		r.Post("/auth/signup", authHandler.HandleSignUp)
		r.Post("/auth/signin", authHandler.HandleSignIn)
		r.Post("/auth/signout", authHandler.HandleSignOut)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/auth/refresh", authHandler.HandleRefresh)
			r.Post("/ideas", ideaHandler.HandleCreate)
			r.Put("/ideas/{id}", ideaHandler.HandleUpdate)
			r.Delete("/ideas/{id}", ideaHandler.HandleDelete)
			r.Post("/ideas/{id}/star", ideaHandler.HandleToggleStar)
			r.Post("/ideas/{id}/fork", ideaHandler.HandleFork)
		})
	})

	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, stop
// the stats refresher, and close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	refresherCtx, stopRefresher := context.WithCancel(context.Background())
	defer stopRefresher()
	if s.refresher != nil {
		go s.refresher.Run(refresherCtx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
