// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/cosmicctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

// --------------------------------------------------------------------------
// Table names, shared with the migrations
// --------------------------------------------------------------------------

const (
	UsersTable        = "users"
	AlertsTable       = "alerts"
	ChatMessagesTable = "chat_messages"
)

// DefaultNASABaseURL is the NeoWs REST root.
const DefaultNASABaseURL = "https://api.nasa.gov/neo/rest/v1"

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	RunMigrations  bool

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// Logging
	LogLevel  string
	LogFormat string // text, json
	LogFile   string // empty = stdout only

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// NASA NeoWs. The key is not required at load time: a missing key is
	// reported when the feed is first used.
	NASAAPIKey            string
	NASABaseURL           string
	NASATimeout           time.Duration
	NASARequestsPerMinute int
	FeedCacheTTL          time.Duration

	// Alerts
	AlertCheckInterval time.Duration
	AlertRunTimeout    time.Duration
	AlertListLimit     int
	AlertRetentionDays int
	DefaultMinRisk     risk.Level

	// Risk policy overrides (YAML). Empty = built-in weights.
	RiskPolicyFile string

	// Kafka alert events. No brokers = publishing disabled.
	KafkaBrokers     []string
	KafkaAlertsTopic string

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	nasaTimeout, err := envDuration("NASA_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	feedTTL, err := envDuration("FEED_CACHE_TTL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	checkInterval, err := envDuration("ALERT_CHECK_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	runTimeout, err := envDuration("ALERT_RUN_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	minRisk, err := risk.ParseLevel(envOr("DEFAULT_MIN_RISK_LEVEL", string(risk.Moderate)))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_MIN_RISK_LEVEL: %w", err)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		RunMigrations:  envBool("RUN_MIGRATIONS", true),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 5000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
		LogFile:   envOr("LOG_FILE", ""),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		NASAAPIKey:            strings.TrimSpace(os.Getenv("NASA_API_KEY")),
		NASABaseURL:           envOr("NASA_BASE_URL", DefaultNASABaseURL),
		NASATimeout:           nasaTimeout,
		NASARequestsPerMinute: envInt("NASA_REQUESTS_PER_MINUTE", 60),
		FeedCacheTTL:          feedTTL,

		AlertCheckInterval: checkInterval,
		AlertRunTimeout:    runTimeout,
		AlertListLimit:     envInt("ALERT_LIST_LIMIT", 50),
		AlertRetentionDays: envInt("ALERT_RETENTION_DAYS", 0),
		DefaultMinRisk:     minRisk,

		RiskPolicyFile: envOr("RISK_POLICY_FILE", ""),

		KafkaBrokers:     envList("KAFKA_BROKERS", nil),
		KafkaAlertsTopic: envOr("KAFKA_ALERTS_TOPIC", "neo-alerts"),

		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.NASATimeout <= 0 {
		return nil, fmt.Errorf("NASA_TIMEOUT must be positive")
	}
	if cfg.FeedCacheTTL <= 0 {
		return nil, fmt.Errorf("FEED_CACHE_TTL must be positive")
	}
	if cfg.AlertCheckInterval <= 0 {
		return nil, fmt.Errorf("ALERT_CHECK_INTERVAL must be positive")
	}
	if cfg.AlertRunTimeout <= 0 {
		return nil, fmt.Errorf("ALERT_RUN_TIMEOUT must be positive")
	}
	if cfg.AlertRetentionDays < 0 {
		return nil, fmt.Errorf("ALERT_RETENTION_DAYS must not be negative")
	}
	if cfg.NASARequestsPerMinute < 1 {
		cfg.NASARequestsPerMinute = 1
	}

	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// KafkaEnabled reports whether alert events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
