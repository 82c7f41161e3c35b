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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/ryanbastic/rollcall/internal/api"
	"github.com/ryanbastic/rollcall/internal/circuitbreaker"
	"github.com/ryanbastic/rollcall/internal/config"
	"github.com/ryanbastic/rollcall/internal/metrics"
	"github.com/ryanbastic/rollcall/internal/notify"
	"github.com/ryanbastic/rollcall/internal/session"
	"github.com/ryanbastic/rollcall/internal/storage"
)

func main() {
	envFile := flag.String("env-file", ".env", "Load environment variables from this dotenv file if it exists")
	noSeed := flag.Bool("no-seed", false, "Never write sample data into an empty store")
	port := flag.String("port", "", "HTTP listen port (overrides PORT)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Error("failed to load env file", "path", *envFile, "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if *noSeed {
		cfg.SeedEnabled = false
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	var backend storage.Store
	switch cfg.StorageDriver {
	case config.DriverMemory:
		backend = storage.NewMemoryStore()
		logger.Warn("using in-memory storage; data is lost on restart")
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database")

		if err := storage.RunMigrations(ctx, pool); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations complete")

		prometheus.MustRegister(metrics.NewPoolCollector(pool))
		backend = storage.NewPostgresStore(pool, cfg.QueryTimeout)
	default:
		logger.Error("unknown storage driver", "driver", cfg.StorageDriver)
		os.Exit(1)
	}

	breaker := circuitbreaker.New("store", cfg.BreakerMaxFailures, cfg.BreakerResetTimeout,
		circuitbreaker.WithFailureFilter(storage.IsOutage),
		circuitbreaker.WithStateChange(func(name string, from, to circuitbreaker.State) {
			metrics.SetBreakerState(name, int(to))
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
	)
	metrics.SetBreakerState("store", int(breaker.State()))
	store := storage.NewGuardedStore(backend, breaker)

	// Change notifications
	var notifier *notify.Notifier
	opts := session.Options{SeedEnabled: cfg.SeedEnabled}
	if cfg.NotifyConfigPath != "" {
		nc, err := config.LoadNotifyConfig(cfg.NotifyConfigPath)
		if err != nil {
			logger.Error("failed to load notify config", "path", cfg.NotifyConfigPath, "error", err)
			os.Exit(1)
		}
		subs := make([]notify.Subscriber, len(nc.Subscribers))
		for i, s := range nc.Subscribers {
			subs[i] = notify.Subscriber(s)
		}
		registry, err := notify.NewRegistry(subs)
		if err != nil {
			logger.Error("invalid notify config", "path", cfg.NotifyConfigPath, "error", err)
			os.Exit(1)
		}
		client := notify.NewRPCClient(cfg.NotifyRetryMax, cfg.NotifyRetryBackoff, cfg.NotifyRPCTimeout)
		notifier = notify.NewNotifier(registry, client, logger)
		opts.Publisher = notifier
		logger.Info("change notifications enabled", "subscribers", len(subs))
	}

	// Seed data
	seed := config.DefaultSeed()
	if cfg.SeedFile != "" {
		s, err := config.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			logger.Error("failed to load seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		seed = s
	}
	opts.Seed = session.Seed(seed)

	// Calendar cache. A failed load is served as 503s, not a crash.
	cache := session.New(store, logger, opts)
	if err := cache.Load(ctx); err != nil {
		if errors.Is(err, session.ErrSeedFailed) {
			logger.Error("failed to seed sample data", "error", err)
		} else {
			logger.Error("failed to load calendar data", "error", err)
		}
	} else {
		logger.Info("calendar loaded")
	}

	// Start HTTP server
	handler := api.NewServer(logger, cache, store, api.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ICSProdID:          cfg.ICSProdID,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	// Deliveries still in flight are cancelled once the deadline passes.
	if notifier != nil {
		if err := notifier.Close(shutdownCtx); err != nil {
			logger.Warn("pending notifications dropped", "error", err)
		}
	}
	cancel()

	logger.Info("shutdown complete")
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
