// Package main is the entrypoint for the timetrack API server.
package main

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

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/timetrack/internal/api"
	"github.com/kiranshivaraju/timetrack/internal/api/handler"
	mw "github.com/kiranshivaraju/timetrack/internal/api/middleware"
	"github.com/kiranshivaraju/timetrack/internal/auth"
	"github.com/kiranshivaraju/timetrack/internal/cache"
	"github.com/kiranshivaraju/timetrack/internal/config"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/migrations"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Build services and router
	router := newRouter(cfg, store.NewPostgresStore(pool), redisCache)

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newRouter wires the service layer and every handler onto st and c.
func newRouter(cfg *config.Config, st store.Store, c cache.Cache) http.Handler {
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.JWTIssuer,
		TTL:    cfg.Auth.TokenTTL,
	})

	svc := service.New(service.Deps{
		Store:    st,
		Tokens:   tokens,
		Hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Counters: c,
		Lockout: service.LockoutPolicy{
			MaxFailures: cfg.RateLimit.LoginMaxFailures,
			Window:      cfg.RateLimit.LoginLockout,
		},
		Logger: slog.Default(),
	})

	return api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(tokens),
		RateLimit: mw.NewRateLimit(c, cfg.RateLimit.RequestsPerMin),

		LoginRequestsPerMin: cfg.RateLimit.LoginRequestsPerMin,
		CORSAllowedOrigins:  cfg.CORS.AllowedOrigins,

		HealthHandler:  handler.NewHealthHandler(st, c),
		MetricsHandler: promhttp.Handler(),

		RegisterHandler: handler.NewRegisterHandler(svc),
		LoginHandler:    handler.NewLoginHandler(svc),
		MeHandler:       handler.NewMeHandler(svc),
		CompanyHandler:  handler.NewCompanyHandler(svc),

		Employees:   handler.NewEmployeeResource(svc),
		Customers:   handler.NewCustomerResource(svc),
		Locations:   handler.NewLocationResource(svc),
		Jobs:        handler.NewJobResource(svc),
		TimeEntries: handler.NewTimeEntryHandlers(svc),
		AuditLogs:   handler.NewListAuditLogsHandler(svc),
	})
}
