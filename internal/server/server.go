// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: every dependency is built and
// wired here, in New and setupRoutes, rather than scattered around.
//
//	config.Config → sqlite.DB → RecipeService / UserService → handlers
//
// Each layer only receives what it needs. Services get repository
// interfaces (not *sqlite.DB), handlers get services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcwaters/recipe-app-api/internal/auth"
	"github.com/samcwaters/recipe-app-api/internal/config"
	"github.com/samcwaters/recipe-app-api/internal/handler"
	"github.com/samcwaters/recipe-app-api/internal/middleware"
	sqliteRepo "github.com/samcwaters/recipe-app-api/internal/repository/sqlite"
	"github.com/samcwaters/recipe-app-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. Start closes it after the
// HTTP server has drained, so pending writes are flushed and the file
// lock released.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, builds the services and wires the routes.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it isn't confused with
// the modernc.org/sqlite driver.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
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

// Handler returns the root HTTP handler. Tests drive it through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Only needed when Start is never called.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                   → liveness
//	GET    /readyz                    → readiness (pings the DB)
//	GET    /metrics                   → Prometheus (when enabled)
//	POST   /api/user/create/          → register
//	POST   /api/user/token/           → issue token
//	GET    /api/user/me/              → own profile          [auth]
//	PUT    /api/user/me/              → replace own profile  [auth]
//	PATCH  /api/user/me/              → patch own profile    [auth]
//	GET    /api/recipes/              → list own recipes     [auth]
//	POST   /api/recipes/              → create               [auth]
//	GET    /api/recipes/{id}/         → retrieve             [auth]
//	PUT    /api/recipes/{id}/         → full update          [auth]
//	PATCH  /api/recipes/{id}/         → partial update       [auth]
//	DELETE /api/recipes/{id}/         → delete               [auth]
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so every later log line can carry it, Recoverer before
// the logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	users := s.db.Users()
	recipeService := service.NewRecipeService(s.db.Recipes(), s.logger)
	userService := service.NewUserService(users, tokens, passwords, s.logger)

	recipeHandler := handler.NewRecipeHandler(recipeService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if s.config.MetricsEnabled {
		s.router.Use(middleware.Metrics)
	}

	if origins := s.config.CORSOrigins(); len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// === Probes ===
	s.router.Get("/healthz", healthHandler.HandleLiveness)
	s.router.Get("/readyz", healthHandler.HandleReadiness)
	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	requireAuth := auth.RequireAuth(tokens, users)

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/create/", userHandler.HandleCreate)
			r.Post("/token/", userHandler.HandleToken)

			r.With(requireAuth).Route("/me", func(r chi.Router) {
				r.Get("/", userHandler.HandleMe)
				r.Put("/", userHandler.HandleUpdateMe)
				r.Patch("/", userHandler.HandlePartialUpdateMe)
			})
		})

		r.With(requireAuth).Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.HandleList)
			r.Post("/", recipeHandler.HandleCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recipeHandler.HandleGet)
				r.Put("/", recipeHandler.HandleUpdate)
				r.Patch("/", recipeHandler.HandlePartialUpdate)
				r.Delete("/", recipeHandler.HandleDelete)
			})
		})
	})

	return nil
}

// Start runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts down gracefully:
//  1. Stop accepting new connections
//  2. Wait up to SHUTDOWN_TIMEOUT for in-flight requests
//  3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.AppPort),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.AppPort),
			slog.String("env", s.config.AppEnv),
			slog.String("database", s.config.DBPath),
			slog.Bool("metrics", s.config.MetricsEnabled),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
