package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rollcall-hq/rollcall/internal/app"
	"github.com/rollcall-hq/rollcall/internal/audit"
	"github.com/rollcall-hq/rollcall/internal/auth"
	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/dashboard"
	"github.com/rollcall-hq/rollcall/internal/observability"
	"github.com/rollcall-hq/rollcall/internal/platform/cache"
	"github.com/rollcall-hq/rollcall/internal/platform/db"
	"github.com/rollcall-hq/rollcall/internal/shared"
	"github.com/rollcall-hq/rollcall/internal/users"
	"github.com/rollcall-hq/rollcall/internal/voters"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionStore := shared.NewSessionStore(redisClient, "rollcall_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	resolver := authz.NewResolver()
	gate := authz.NewGate(resolver)

	recorder := audit.NewRecorder(dbpool)
	auditService := audit.NewService(audit.NewRepository(dbpool))

	authRepo := auth.NewRepository(dbpool)
	attemptStore := auth.NewRedisAttemptStore(redisClient, cfg.LoginAttemptTTL)
	guard := auth.NewGuard(attemptStore, cfg.LoginMaxAttempts)
	authService := auth.NewService(authRepo, guard, recorder, logger, metrics)
	authMiddleware := auth.Middleware{Repo: authRepo, Resolver: resolver, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, sessionStore, resolver)

	votersRepo := voters.NewPGRepository(dbpool)
	votersService := voters.NewService(votersRepo, resolver, gate, recorder, logger, metrics)
	votersHandler := voters.NewHandler(logger, votersService, gate, authMiddleware)

	usersService := users.NewService(authRepo, resolver, authService, recorder, logger, metrics)
	usersHandler := users.NewHandler(logger, usersService, authMiddleware)

	dashboardService := dashboard.NewService(dashboard.NewPGRepository(dbpool), resolver)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, authMiddleware)

	auditHandler := audit.NewHandler(logger, auditService, authMiddleware.RequireAny(authz.PermPageAudit))

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionStore:     sessionStore,
		CSRFManager:      csrfManager,
		AuthMiddleware:   authMiddleware,
		AuthHandler:      authHandler,
		VotersHandler:    votersHandler,
		UsersHandler:     usersHandler,
		DashboardHandler: dashboardHandler,
		AuditHandler:     auditHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
