// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it turns one config.Config into the
// whole dependency graph and owns the resources that must be closed on exit.
//
//	config.Config ─┬─ openStore          → repository.AccountRepository (sqlite | redis)
//	               ├─ auth.NewVault      → token encryption at rest
//	               ├─ auth.NewTokenService → signed session cookie
//	               ├─ auth.NewGitHubProvider → OAuth code exchange
//	               └─ github.New         → GitHub REST adapter
//	                     ↓
//	     service.AuthService / TokenVault / RepoReader / RepoWriter
//	                     ↓
//	     handler.AuthHandler / RepoHandler → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/sakif/repoedit/internal/auth"
	"github.com/sakif/repoedit/internal/config"
	"github.com/sakif/repoedit/internal/github"
	"github.com/sakif/repoedit/internal/handler"
	"github.com/sakif/repoedit/internal/middleware"
	"github.com/sakif/repoedit/internal/repository"
	"github.com/sakif/repoedit/internal/service"
)

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger

	// closeStore releases the account store (sqlite file lock / redis pool).
	closeStore func() error
}

// New opens the configured account store and builds the Server around it.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	accounts, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStore(cfg, accounts, logger)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	s.closeStore = closeStore
	return s, nil
}

// NewWithStore builds the Server on an already opened account store.
// Tests use it with an in-memory store.
func NewWithStore(cfg config.Config, accounts repository.AccountRepository, logger *slog.Logger) (*Server, error) {
	vault, err := auth.NewVault(cfg.AccessTokenKey)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	gh, err := github.New(cfg.GitHubAPIURL, logger)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	oauthBase := strings.TrimSuffix(cfg.GitHubOAuthURL, "/")
	provider := auth.NewGitHubProvider(auth.ProviderConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURI:  cfg.GitHubRedirectURI,
		Scopes:       cfg.GitHubScopes,
		Endpoint: &oauth2.Endpoint{
			AuthURL:  oauthBase + "/authorize",
			TokenURL: oauthBase + "/access_token",
		},
	})

	authService := service.NewAuthService(accounts, provider, gh, vault, tokens, logger)
	tokenVault := service.NewTokenVault(accounts, vault)
	reader := service.NewRepoReader(tokenVault, gh, logger)
	writer := service.NewRepoWriter(tokenVault, gh, logger)

	s := &Server{
		router:     chi.NewRouter(),
		config:     cfg,
		logger:     logger,
		closeStore: func() error { return nil },
	}
	s.setupRoutes(
		tokens,
		handler.NewAuthHandler(provider, authService, handler.CookieOptions{
			Secure: cfg.SecureCookies,
			MaxAge: cfg.SessionTTL,
		}, logger),
		handler.NewRepoHandler(reader, writer, logger),
	)
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                → liveness probe
// GET    /auth/github/login      → redirect to GitHub
// GET    /auth/github/callback   → OAuth callback, sets session cookie
// POST   /auth/logout            → delete account, clear cookie      [auth]
// GET    /api/me                 → {login, profile_image}             [auth]
// GET    /api/repos              → repositories                       [auth]
// GET    /api/repos/tree         → recursive tree at branch head      [auth]
// GET    /api/repos/file         → decoded blob contents              [auth]
// POST   /api/repos/commit       → blobs → tree → commit → ref        [auth]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID, 2. RealIP, 3. Recoverer, 4. request logging
func (s *Server) setupRoutes(tokens *auth.TokenService, authHandler *handler.AuthHandler, repoHandler *handler.RepoHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.With(auth.RequireAuth(tokens)).Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Get("/repos", repoHandler.HandleListRepos)
		r.Get("/repos/tree", repoHandler.HandleTree)
		r.Get("/repos/file", repoHandler.HandleFile)
		r.Post("/repos/commit", repoHandler.HandleCommit)
	})
}

// Handler exposes the router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the account store.
func (s *Server) Close() error {
	return s.closeStore()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down gracefully:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the account store
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing account store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
		// The commit chain makes several sequential GitHub calls.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("store", s.config.StoreDriver),
			slog.String("github_api", s.config.GitHubAPIURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
