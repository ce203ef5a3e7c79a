// Command api is the Cosmic Watch API server. It also runs the hourly alert
// scheduler and the maintenance tickers in-process.
//
// Usage:
//
//	cosmic-watch-api
//	API_PORT=8080 cosmic-watch-api

// @title Cosmic Watch API
// @version 1.0.0
// @description Near-Earth object feed with risk scoring, per-user watch-lists and hourly risk alerts.
// @host localhost:5000
// @BasePath /api
// @schemes http https
// @contact.name Cosmic Watch
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/cosmicwatch/cosmic-watch/internal/alerts"
	"github.com/cosmicwatch/cosmic-watch/internal/api"
	"github.com/cosmicwatch/cosmic-watch/internal/api/handler"
	"github.com/cosmicwatch/cosmic-watch/internal/cache"
	"github.com/cosmicwatch/cosmic-watch/internal/chat"
	"github.com/cosmicwatch/cosmic-watch/internal/config"
	"github.com/cosmicwatch/cosmic-watch/internal/db"
	"github.com/cosmicwatch/cosmic-watch/internal/feed"
	"github.com/cosmicwatch/cosmic-watch/internal/maintenance"
	"github.com/cosmicwatch/cosmic-watch/internal/neo"
	"github.com/cosmicwatch/cosmic-watch/internal/observability"
	"github.com/cosmicwatch/cosmic-watch/internal/provider/nasa"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
	"github.com/cosmicwatch/cosmic-watch/internal/users"

	_ "github.com/cosmicwatch/cosmic-watch/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Schema first: prepared statements are validated against it on connect
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Risk policy
	policy, err := risk.LoadPolicy(cfg.RiskPolicyFile)
	if err != nil {
		logger.Error("Failed to load risk policy", "file", cfg.RiskPolicyFile, "error", err)
		os.Exit(1)
	}
	engine := risk.NewEngine(policy)
	logger.Info("Risk policy loaded", "file", cfg.RiskPolicyFile, "policy", engine.Policy())

	// Feed: NeoWs client behind a TTL cache
	clock := clockwork.NewRealClock()
	client := nasa.NewClient(cfg.NASABaseURL, cfg.NASAAPIKey, cfg.NASATimeout, cfg.NASARequestsPerMinute, logger)
	if !client.HasKey() {
		logger.Warn("NASA_API_KEY is not set; feed endpoints will return 503 and alert runs will abort")
	}
	feedCache := cache.New[[]neo.Object](true, clock)
	feedSvc := feed.NewService(client, feedCache, cfg.FeedCacheTTL, clock, metrics, logger)
	logger.Info("Feed initialized", "base_url", cfg.NASABaseURL, "cache_ttl", cfg.FeedCacheTTL)

	// Stores
	userStore := users.NewStore(pool.Pool)
	alertStore := alerts.NewStore(pool.Pool)
	chatStore := chat.NewStore(pool.Pool)

	// Alert scheduler, optionally publishing to Kafka
	deps := alerts.Deps{
		Feed:           feedSvc,
		Users:          userStore,
		Store:          alertStore,
		Engine:         engine,
		DefaultMinRisk: cfg.DefaultMinRisk,
		Clock:          clock,
		Metrics:        metrics,
		Logger:         logger,
	}
	if cfg.KafkaEnabled() {
		publisher := alerts.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertsTopic, logger)
		defer publisher.Close()
		deps.Publisher = publisher
		logger.Info("Alert events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertsTopic)
	} else {
		logger.Info("Alert events disabled (no KAFKA_BROKERS)")
	}
	checker := alerts.NewChecker(deps)

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		alerts.StartScheduler(ctx, checker, cfg.AlertCheckInterval, cfg.AlertRunTimeout, clock, metrics, logger)
	}()

	// Start maintenance tickers (retention, cache eviction)
	go maintenance.Start(ctx, maintenance.DefaultConfig(cfg.AlertRetentionDays), maintenance.Deps{
		Alerts:  alertStore,
		Cache:   feedCache,
		Clock:   clock,
		Metrics: metrics,
		Logger:  logger,
	})

	// Create router
	h := handler.New(handler.Deps{
		Feed:   feedSvc,
		Engine: engine,
		Alerts: alertStore,
		Users:  userStore,
		Chat:   chatStore,
		DB:     pool,
		Config: cfg,
		Logger: logger,
	})
	router := api.NewRouter(h, cfg, metrics)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Cosmic Watch API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			cancel()
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Alert run still active at shutdown deadline")
	}
	logger.Info("Server stopped")
}
