package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/topteen77/indo-israel-sub001/internal/api"
	"github.com/topteen77/indo-israel-sub001/internal/config"
	"github.com/topteen77/indo-israel-sub001/internal/hermes"
	"github.com/topteen77/indo-israel-sub001/internal/rescore"
	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/scoring"
	"github.com/topteen77/indo-israel-sub001/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pg.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Redis cache (optional)
	var db store.Store = pg
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("invalid redis url, running without cache", "error", err)
		} else {
			rdb := redis.NewClient(redisOpts)
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("failed to connect to redis, running without cache", "error", err)
				_ = rdb.Close()
			} else {
				db = store.NewCachedStore(pg, rdb, cfg.CacheTTL(), logger)
				logger.Info("connected to redis", "ttl", cfg.CacheTTL())
			}
		}
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Scoring and routing
	scorer := scoring.NewScorer(cfg.Scoring.MaxScore, time.Now, logger)
	classifier := routing.NewClassifier(routing.DefaultRules(routing.Options{
		SpecialistExperience: cfg.Routing.SpecialistExperience,
		PriorityCategories:   cfg.Routing.PriorityCategories,
		Country:              cfg.Routing.Country,
	}), logger)

	// Re-scoring sweep
	if cfg.Rescore.Enabled {
		sweeper := rescore.New(db, hermesClient, scorer, classifier, cfg, logger)
		sweeper.Start(ctx)
		defer sweeper.Stop()
		logger.Info("rescore sweeper started", "interval", cfg.RescoreInterval(), "max_age", cfg.RescoreMaxAge())
	}

	// API server
	router := api.NewRouter(db, hermesClient, scorer, classifier, cfg, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
