package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/adpulse-lab/adpulse/internal/cache"
	corecfg "github.com/adpulse-lab/adpulse/internal/core/config"
	"github.com/adpulse-lab/adpulse/internal/core/storage/postgres"
	"github.com/adpulse-lab/adpulse/internal/migrations"
	"github.com/adpulse-lab/adpulse/internal/observability"
	"github.com/adpulse-lab/adpulse/internal/reconcile"
	"github.com/adpulse-lab/adpulse/internal/reporting"
	"github.com/adpulse-lab/adpulse/internal/server"
	"github.com/adpulse-lab/adpulse/internal/warming"
)

func main() {
	configPath := flag.String("config", "adpulse.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"workspaces", len(cfg.Reconcile.WorkspaceIDs),
		"default_period", cfg.Reconcile.DefaultPeriod,
		"granularity", cfg.Reconcile.ParsedGranularity(),
		"catalog_fingerprint", cfg.Catalog.Fingerprint[:12],
		"cache", cfg.Cache.Enabled,
		"warming", cfg.Warming.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// 2. Initialize Storage (PostgreSQL)
	db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	dbAdapter, err := postgres.NewAdapter(ctx, db)
	if err != nil {
		slog.Error("Failed to prepare metric store", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()
	dbAdapter.SetMetrics(metrics)

	// 3. Initialize Snapshot Cache
	var snapshots cache.SnapshotCache = cache.NopCache{}
	var redisCache *cache.RedisSnapshotCache
	if cfg.Cache.Enabled {
		redisCache, err = cache.NewRedisSnapshotCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTLDuration(),
		})
		if err != nil {
			slog.Error("Failed to initialize snapshot cache", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		snapshots = redisCache
	} else {
		slog.Info("Snapshot cache disabled by config")
	}

	// 4. Initialize Reconciliation + Reporting
	pipeline := reconcile.NewPipeline(cfg.Catalog, metrics)
	reportingSvc := reporting.NewService(dbAdapter, dbAdapter, pipeline, snapshots, metrics, reporting.Options{
		DefaultPeriodDays: cfg.Reconcile.DefaultPeriodDays(),
		Granularity:       cfg.Reconcile.ParsedGranularity(),
		Dense:             cfg.Reconcile.DenseCalendar,
		WorkerCount:       cfg.Reconcile.WorkerCount,
	})

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), db, cfg.Server.Mode)
	if redisCache != nil {
		srv.WithCache(redisCache)
	}
	if metrics != nil {
		srv.MountMetrics(cfg.Metrics.Path, metrics.Handler())
	}
	reportingSvc.RegisterRoutes(srv.Engine)

	// 6. Start Services
	if cfg.Warming.Enabled {
		scheduler := warming.NewScheduler(cfg.Warming.IntervalDuration(), reportingSvc, cfg.Reconcile.WorkspaceIDs, metrics)
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Warming scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Cache warming disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
