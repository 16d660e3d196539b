// Package server is the composition root: it opens the database, builds the
// service and handler layers, mounts the routes and runs the HTTP server
// until it is told to stop.
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

	"github.com/sakif/package-registry/internal/auth"
	"github.com/sakif/package-registry/internal/config"
	"github.com/sakif/package-registry/internal/handler"
	"github.com/sakif/package-registry/internal/middleware"
	sqliteRepo "github.com/sakif/package-registry/internal/repository/sqlite"
	"github.com/sakif/package-registry/internal/service"
)

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds a Server that signs users in through github.com.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	provider := auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	return NewWithProvider(cfg, logger, provider)
}

// NewWithProvider builds a Server against any identity provider.
func NewWithProvider(cfg config.Config, logger *slog.Logger, provider service.IdentityProvider) (*Server, error) {
	sessions, err := auth.NewSessionService(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("configuring sessions: %w", err)
	}

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
	s.setupRoutes(sessions, provider)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes wires the dependency chain and mounts every route.
//
//	GET    /authorize_url                       start sign-in
//	GET    /authorize                           OAuth callback
//	POST   /logout                              drop session cookie
//	GET    /me                                  caller + API token      [auth]
//	PUT    /me/reset_token                      rotate API token        [auth]
//	GET    /me/updates                          followed-package feed   [auth]
//	GET    /api/v1/users/{login}                public profile
//	GET    /api/v1/packages?user_id=            packages by owner
//	GET    /api/v1/packages/{name}              package
//	PUT    /api/v1/packages/{name}/follow       follow                  [auth]
//	DELETE /api/v1/packages/{name}/follow       unfollow                [auth]
//	GET    /api/v1/packages/{name}/following    follow state            [auth]
//
// RequestID runs before Logger so every log line carries the id.
func (s *Server) setupRoutes(sessions *auth.SessionService, provider service.IdentityProvider) {
	users := s.db.Users()

	authService := service.NewAuthService(users, provider, auth.NewAPITokens(nil), sessions, s.logger)
	packageService := service.NewPackageService(s.db.Packages(), s.logger)
	followService := service.NewFollowService(s.db.Follows(), s.logger)
	feedService := service.NewFeedService(s.db.Feed(), s.logger)

	authHandler := handler.NewAuthHandler(authService, sessions.TTL(), s.config.SecureCookies, s.logger)
	userHandler := handler.NewUserHandler(authService, s.logger)
	packageHandler := handler.NewPackageHandler(packageService, s.logger)
	followHandler := handler.NewFollowHandler(followService, s.logger)
	feedHandler := handler.NewFeedHandler(feedService, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.Resolve(auth.NewResolver(sessions, users)))

	s.router.Get("/authorize_url", authHandler.HandleAuthorizeURL)
	s.router.Get("/authorize", authHandler.HandleAuthorize)
	s.router.Post("/logout", authHandler.HandleLogout)

	s.router.Route("/me", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", authHandler.HandleMe)
		r.Put("/reset_token", authHandler.HandleResetToken)
		r.Get("/updates", feedHandler.HandleUpdates)
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/users/{login}", userHandler.HandleShow)
		r.Get("/packages", packageHandler.HandleList)

		r.Route("/packages/{name}", func(r chi.Router) {
			r.Get("/", packageHandler.HandleShow)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Put("/follow", followHandler.HandleFollow)
				r.Delete("/follow", followHandler.HandleUnfollow)
				r.Get("/following", followHandler.HandleFollowing)
			})
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the database.
//
// SHUTDOWN ORDER:
// 1. Signal arrives → srv.Shutdown stops accepting new connections
// 2. In-flight requests finish (or the 30s deadline cuts them off)
// 3. The deferred db.Close runs last, so no handler sees a closed database
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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
