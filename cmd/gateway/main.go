// Package main runs the sqlground gateway: it validates bearer
// credentials against the identity provider, serves the scoped operation
// surface, and orchestrates SQL submissions against the execution
// service.
//
// Configuration is resolved from envDefault tags, an optional config file
// (GATEWAY_CONFIG_FILE), and environment variables, in that order. The
// required settings are AUTH_DOMAIN, AUTH_AUDIENCE, DBRUNNER_ADDR and the
// POSTGRES_* connection settings.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sqlground/sqlground-core/pkg/auth"
	"github.com/sqlground/sqlground-core/pkg/catalog"
	"github.com/sqlground/sqlground-core/pkg/clients/postgres"
	"github.com/sqlground/sqlground-core/pkg/clients/redis"
	"github.com/sqlground/sqlground-core/pkg/config"
	"github.com/sqlground/sqlground-core/pkg/dbrunner"
	"github.com/sqlground/sqlground-core/pkg/gateway"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.MustLoad[gateway.Config](
		config.New().WithFile(os.Getenv("GATEWAY_CONFIG_FILE")),
	)

	ctx := context.Background()

	pg, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		logger.Error("failed to connect to the catalog database", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	rds, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to the rate limiter store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := rds.Close(); closeErr != nil {
			logger.Warn("failed to close redis client", "error", closeErr)
		}
	}()

	runner, err := dbrunner.NewClient(cfg.DBRunner)
	if err != nil {
		logger.Error("failed to set up the execution service client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := runner.Close(); closeErr != nil {
			logger.Warn("failed to close dbrunner client", "error", closeErr)
		}
	}()

	keys := auth.NewKeySetCache(cfg.Auth.KeySetTTL, nil)
	validator := auth.NewValidator(cfg.Auth.ValidatorConfig(), keys)

	var limiter gateway.Limiter
	if cfg.RateLimit > 0 {
		limiter = gateway.NewRateLimiter(rds, cfg.RateLimit, cfg.RateWindow, logger)
	}

	store := catalog.NewStore(pg)
	svc := gateway.NewService(store, runner, limiter, logger)

	mux := http.NewServeMux()
	registerRoutes(mux, svc, logger)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.Health(r.Context()); err != nil {
			http.Error(w, "catalog database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := rds.Health(r.Context()); err != nil {
			http.Error(w, "rate limiter store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := requestIDMiddleware(auth.HTTPMiddleware(validator)(mux))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("gateway stopped")
}

// requestIDMiddleware tags every request with an id for log correlation.
// An inbound X-Request-ID is trusted; otherwise a fresh one is minted.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}
