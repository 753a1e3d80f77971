package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benchline/api/internal/config"
	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/handler"
	"github.com/benchline/api/internal/jobs"
	"github.com/benchline/api/internal/middleware"
	"github.com/benchline/api/internal/repository"
	"github.com/benchline/api/internal/service"
	"github.com/benchline/api/internal/store"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env in development; ignore a missing file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	ctx := context.Background()
	db, err := database.Connect(ctx, database.Config{DSN: cfg.Database.DSN()})
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	// Initialize file store
	fileStore, err := store.New(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to initialize file store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize token service
	tokenService, err := service.NewTokenService(service.TokenServiceConfig{
		Key:             cfg.Auth.Key,
		Algorithm:       cfg.Auth.Algorithm,
		TokenExpiration: cfg.Auth.TokenExpiration,
	})
	if err != nil {
		slog.Error("failed to initialize token service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	testRepo := repository.NewTestRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	// Initialize services
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:       userRepo,
		ChallengeRepo:  challengeRepo,
		SubmissionRepo: submissionRepo,
		TokenService:   tokenService,
	})
	challengeService := service.NewChallengeService(service.ChallengeServiceConfig{
		ChallengeRepo: challengeRepo,
		TestRepo:      testRepo,
		Store:         fileStore,
		Logger:        logger,
	})
	submissionService := service.NewSubmissionService(service.SubmissionServiceConfig{
		ChallengeRepo:  challengeRepo,
		TestRepo:       testRepo,
		SubmissionRepo: submissionRepo,
		EvaluationRepo: evaluationRepo,
		Store:          fileStore,
		Logger:         logger,
	})
	adminService := service.NewAdminService(service.AdminServiceConfig{
		UserRepo: userRepo,
		Logger:   logger,
	})

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	challengeHandler := handler.NewChallengeHandler(challengeService, cfg.Server.MaxUploadBytes)
	submissionHandler := handler.NewSubmissionHandler(submissionService, cfg.Server.MaxUploadBytes)
	adminHandler := handler.NewAdminHandler(adminService)
	healthHandler := handler.NewHealthHandler(db)

	// Prometheus registry with process and Go runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// Background jobs
	sweeper := jobs.NewSweeperJob(jobs.SweeperConfig{
		Store:  fileStore,
		Logger: logger,
	})
	sweeper.Start()
	defer sweeper.Stop()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{})
	defer rateLimiter.Stop()

	// Route setup
	mux := http.NewServeMux()

	// Operational endpoints
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Auth endpoints (public)
	mux.HandleFunc("POST /auth/create-user", authHandler.CreateUser)
	mux.HandleFunc("POST /auth/login", authHandler.Login)

	// Auth endpoints (protected)
	authMiddleware := middleware.Auth(tokenService, userRepo)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}
	authorOnly := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.RequireAuthor(h))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.RequireAdmin(h))
	}

	mux.Handle("GET /auth/me", protected(authHandler.Me))
	mux.Handle("GET /auth/profile", protected(authHandler.Profile))
	mux.Handle("PATCH /auth/edit-user", protected(authHandler.EditUser))
	mux.Handle("GET /auth/rights", protected(authHandler.Rights))

	// Challenge endpoints
	mux.Handle("POST /challenges/create-challenge", authorOnly(challengeHandler.Create))
	mux.HandleFunc("GET /challenges/get-challenges", challengeHandler.List)
	mux.HandleFunc("GET /challenges/challenge/{title}", challengeHandler.Get)

	// Evaluation endpoints
	mux.Handle("POST /evaluation/submit", protected(submissionHandler.Submit))
	mux.HandleFunc("GET /evaluation/get-metrics", submissionHandler.Metrics)
	mux.HandleFunc("GET /evaluation/{challenge}/all-submissions", submissionHandler.AllSubmissions)
	mux.Handle("GET /evaluation/{challenge}/my-submissions", protected(submissionHandler.MySubmissions))
	mux.HandleFunc("GET /evaluation/{challenge}/leaderboard", submissionHandler.Leaderboard)

	// Admin endpoints
	mux.Handle("GET /admin/users", adminOnly(adminHandler.ListUsers))
	mux.Handle("POST /admin/update-user-rights", adminOnly(adminHandler.UpdateRights))
	mux.Handle("DELETE /admin/challenges/{title}", adminOnly(challengeHandler.Delete))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		httpMetrics.Instrument,
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
