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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/cimillas/concert-ticketing/internal/app"
	"github.com/cimillas/concert-ticketing/internal/clock"
	"github.com/cimillas/concert-ticketing/internal/config"
	"github.com/cimillas/concert-ticketing/internal/metrics"
	"github.com/cimillas/concert-ticketing/internal/notify"
	"github.com/cimillas/concert-ticketing/internal/obs"
	"github.com/cimillas/concert-ticketing/internal/ratelimit"
	"github.com/cimillas/concert-ticketing/internal/storage/memory"
	"github.com/cimillas/concert-ticketing/internal/storage/postgres"
	transporthttp "github.com/cimillas/concert-ticketing/internal/transport/http"
	"github.com/cimillas/concert-ticketing/migrations"
)

const startupTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("api", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("TICKETING_CONFIG"), "path to a YAML config file")
	port := flags.String("port", "", "HTTP listen port")
	storageDriver := flags.String("storage", "", "storage driver: postgres or memory")
	databaseURL := flags.String("database-url", "", "Postgres connection string")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	envPath, envErr := config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *storageDriver != "" {
		cfg.Storage.Driver = *storageDriver
	}
	if *databaseURL != "" {
		cfg.Storage.DatabaseURL = *databaseURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, _ := obs.ParseLevel(cfg.Log.Level)
	logger, err := obs.NewLogger(os.Stdout, level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	switch {
	case envErr != nil:
		logger.Warn("failed to load .env", slog.Any("error", envErr))
	case envPath == "":
		logger.Debug(".env not found in current or parent directories")
	default:
		logger.Info("loaded env", slog.String("path", envPath))
	}

	policy, _ := app.ParsePaymentPolicy(cfg.Purchase.PaymentPolicy)
	if policy == app.PolicyDecrementFirst {
		logger.Warn("decrement_first policy burns a unit on every underpaid attempt; keep rate limiting on")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	clk := clock.NewSystem()
	opts := []app.AllocationServiceOption{app.WithPaymentPolicy(policy)}

	var mounts transporthttp.Services

	if cfg.Metrics.Enabled {
		provider, err := metrics.Setup()
		if err != nil {
			return err
		}
		defer func() { _ = provider.Shutdown(context.Background()) }()
		recorder, err := metrics.NewRecorder(provider.Meter())
		if err != nil {
			return fmt.Errorf("create metrics recorder: %w", err)
		}
		opts = append(opts, app.WithRecorder(recorder))
		mounts.Metrics = provider.Handler()
	}

	if cfg.NATS.URL != "" {
		natsCfg := notify.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Subject = cfg.NATS.Subject
		conn, err := notify.Connect(natsCfg)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Drain() }()
		opts = append(opts, app.WithNotifier(
			notify.NewNATSPublisher(conn, natsCfg.Subject),
			func(err error) { logger.Warn("ticket notification failed", slog.Any("error", err)) },
		))
		logger.Info("publishing sales", slog.String("subject", natsCfg.Subject))
	}

	if cfg.RateLimit.Enabled {
		limiter, closeLimiter, err := newLimiter(startupCtx, cfg.RateLimit, clk)
		if err != nil {
			return err
		}
		defer closeLimiter()
		mounts.Limiter = limiter
	}

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; state is lost on restart")
		store := memory.New()
		allocation := app.NewAllocationService(store, clk, opts...)
		mounts.Events = app.NewCatalogService(store, clk)
		mounts.Buyer = allocation
		mounts.Tickets = allocation
	case config.StoragePostgres:
		pool, err := pgxpool.New(startupCtx, cfg.Storage.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(startupCtx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		if err := migrations.Apply(startupCtx, pool); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		allocation := app.NewAllocationService(postgres.NewAllocationRepository(pool), clk, opts...)
		mounts.Events = app.NewCatalogService(postgres.NewCatalogRepository(pool), clk)
		mounts.Buyer = allocation
		mounts.Tickets = allocation
		mounts.Health = pool.Ping
	}

	mux := transporthttp.NewRouter(mounts, logger)
	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.Server.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("api listening",
		slog.String("addr", server.Addr),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("payment_policy", string(policy)),
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")
	return nil
}

func newLimiter(ctx context.Context, cfg config.RateLimitConfig, clk clock.Clock) (ratelimit.Limiter, func(), error) {
	switch cfg.Backend {
	case config.RateLimitRedis:
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		limiter, err := ratelimit.NewRedisLimiter(client, cfg.Limit, cfg.Window, clk)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return limiter, func() { _ = client.Close() }, nil
	default:
		limiter, err := ratelimit.NewMemoryLimiter(cfg.Limit, cfg.Window, clk)
		if err != nil {
			return nil, nil, err
		}
		return limiter, func() {}, nil
	}
}
