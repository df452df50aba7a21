// Package server is the composition root: it wires the database,
// services, handlers, and middleware into a chi router and owns the
// HTTP server's lifecycle, including graceful shutdown.
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
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/charlesaguiar/nlw-copa-server/internal/auth"
	"github.com/charlesaguiar/nlw-copa-server/internal/config"
	"github.com/charlesaguiar/nlw-copa-server/internal/handler"
	"github.com/charlesaguiar/nlw-copa-server/internal/middleware"
	sqliteRepo "github.com/charlesaguiar/nlw-copa-server/internal/repository/sqlite"
	"github.com/charlesaguiar/nlw-copa-server/internal/service"
)

// Server holds the router and the resources it must release on
// shutdown. The database handle lives here, opened in New and closed
// when Start returns, rather than in a package-level singleton.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer receives interfaces or services, never the layers beneath
// them; the handler for /pools has no idea SQLite exists.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

// Handler exposes the router; tests mount it on httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords := auth.NewPasswordService()
	google := auth.NewGoogleProvider(s.config.GoogleUserInfoURL)

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, google, s.logger)
	userService := service.NewUserService(s.db.Users(), s.logger)
	poolService := service.NewPoolService(s.db.Pools(), s.logger)
	gameService := service.NewGameService(s.db.Games(), s.db.Pools(), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	poolHandler := handler.NewPoolHandler(poolService, s.logger)
	gameHandler := handler.NewGameHandler(gameService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	// Global middleware, in order: request id → real ip → panic recovery
	// → request logging → CORS.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Get("/health-check", handler.HandleHealthCheck)

	// Credential endpoints get an IP rate limit on top; they're the
	// ones worth brute-forcing.
	s.router.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.config.AuthRateLimit, time.Minute))
		r.Post("/user", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/google-auth/user", authHandler.HandleGoogleAuth)
	})

	s.router.Get("/users", userHandler.HandleList)
	s.router.Get("/users/count", userHandler.HandleCount)
	s.router.Get("/pools/count", poolHandler.HandleCount)

	// Pool creation is the one route where auth is optional: a valid
	// session makes the creator owner, anything else degrades to an
	// anonymous, unowned pool.
	s.router.With(optionalAuth).Post("/pools", poolHandler.HandleCreate)

	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", authHandler.HandleMe)
		r.Delete("/users/{id}", userHandler.HandleDelete)
		r.Post("/pools/join", poolHandler.HandleJoin)
		r.Get("/pools", poolHandler.HandleList)
		r.Get("/pools/{id}", poolHandler.HandleGetByID)
		r.Get("/pools/{id}/games", gameHandler.HandleListForPool)
		r.Post("/pools/{poolId}/games/{gameId}/guesses", gameHandler.HandleSubmitGuess)
		r.Post("/games", gameHandler.HandleCreate)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
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
