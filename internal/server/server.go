// Package server is the composition root: it builds services and handlers
// from already opened resources, defines the routes and runs the HTTP
// server until it is told to stop.
//
//	cli serve → opens DB, Redis, generator, providers
//	          → server.New wires service → handler → route
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

	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/config"
	"github.com/pathnova/pathnova-api/internal/generator"
	"github.com/pathnova/pathnova-api/internal/handler"
	"github.com/pathnova/pathnova-api/internal/middleware"
	"github.com/pathnova/pathnova-api/internal/repository"
	"github.com/pathnova/pathnova-api/internal/service"
	"github.com/pathnova/pathnova-api/internal/session"
)

// Deps are the long-lived resources the server runs on. The caller opens
// them and closes them after Start returns.
type Deps struct {
	DB          repository.Database
	Revocations session.Store
	Generator   generator.Generator
	Tokens      *auth.TokenService
	Providers   []service.IdentityProvider
}

type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.DB == nil || deps.Revocations == nil || deps.Generator == nil || deps.Tokens == nil {
		return nil, errors.New("server: database, revocation store, generator and token service are required")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(deps)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes wires every layer and mounts the routes.
//
// GET    /                          → liveness
// GET    /healthz                   → database and session store ping
// POST   /webhooks/{provider}       → form submission ingest
// POST   /plan/generate             → cached or fresh learning plan
// POST   /auth/{provider}           → sign in with ID token or code
// GET    /auth/{provider}/start     → redirect to consent screen
// GET    /auth/{provider}/callback  → finish code flow, redirect to frontend
// GET    /auth/me                   → current user (session required)
// POST   /auth/logout               → revoke session
// GET    /debug/latest              → newest submission (DEBUG_ROUTES only)
func (s *Server) setupRoutes(deps Deps) {
	// === Global middleware, in order ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// === Services ===
	identity := service.NewIdentityResolver(s.logger)
	builder := service.NewContextBuilder(deps.DB)
	submissions := service.NewSubmissionService(deps.DB, identity, s.logger)
	plans := service.NewPlanService(deps.DB, builder, deps.Generator, s.logger)
	authService := service.NewAuthService(deps.DB, identity, deps.Tokens, deps.Revocations, s.logger, deps.Providers...)
	guard := auth.NewGuard(deps.Tokens, deps.Revocations, deps.DB.Users(), handler.ErrorWriter(s.logger), s.logger)

	// === Handlers ===
	health := handler.NewHealthHandler(deps.DB, deps.Revocations, s.logger)
	webhooks := handler.NewWebhookHandler(submissions, s.config.TypeformSecret, s.logger)
	planHandler := handler.NewPlanHandler(plans, s.logger)
	authHandler := handler.NewAuthHandler(authService, auth.CookieConfig{Secure: s.config.CookieSecure}, s.config.FrontendURL, s.logger)

	s.router.Get("/", health.HandleRoot)
	s.router.Get("/healthz", health.HandleHealth)

	s.router.Post("/webhooks/{provider}", webhooks.HandleWebhook)
	s.router.Post("/webhooks/{provider}/", webhooks.HandleWebhook)

	s.router.With(guard.OptionalAuth).Post("/plan/generate", planHandler.HandleGenerate)

	s.router.Route("/auth", func(r chi.Router) {
		r.With(guard.RequireAuth).Get("/me", authHandler.HandleMe)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/{provider}", authHandler.HandleLogin)
		r.Get("/{provider}/start", authHandler.HandleStart)
		r.Get("/{provider}/callback", authHandler.HandleCallback)
	})

	if s.config.DebugRoutes {
		debug := handler.NewDebugHandler(builder, s.logger)
		s.router.Get("/debug/latest", debug.HandleLatest)
		s.logger.Warn("debug routes enabled")
	}
}

// Start serves until SIGINT/SIGTERM or ctx is cancelled, then gives
// in-flight requests 30 seconds to finish.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// Plan generation can take most of the generator timeout.
		WriteTimeout: s.config.OpenAITimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
