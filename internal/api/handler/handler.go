// Package handler provides HTTP handlers for all API endpoints.
// Handlers depend on small interfaces so the feed, stores and database can
// be swapped for fakes.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cosmicwatch/cosmic-watch/internal/alerts"
	"github.com/cosmicwatch/cosmic-watch/internal/api/respond"
	"github.com/cosmicwatch/cosmic-watch/internal/cache"
	"github.com/cosmicwatch/cosmic-watch/internal/chat"
	"github.com/cosmicwatch/cosmic-watch/internal/config"
	"github.com/cosmicwatch/cosmic-watch/internal/feed"
	"github.com/cosmicwatch/cosmic-watch/internal/neo"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
	"github.com/cosmicwatch/cosmic-watch/internal/users"
)

// FeedService serves normalized feed snapshots and single lookups.
type FeedService interface {
	GetSnapshot(ctx context.Context, date string) (feed.Snapshot, error)
	GetByID(ctx context.Context, id string) (neo.Object, error)
	CacheStats() cache.Stats
}

// AlertStore lists and updates a user's alerts.
type AlertStore interface {
	ListByUser(ctx context.Context, q alerts.ListQuery) ([]alerts.Record, error)
	MarkRead(ctx context.Context, userID string, id int64) error
}

// UserStore reads and updates profiles.
type UserStore interface {
	Get(ctx context.Context, id string) (users.AlertProfile, error)
	Ensure(ctx context.Context, id, name string, defaultMin risk.Level) (users.AlertProfile, error)
	UpdateProfile(ctx context.Context, id string, u users.ProfileUpdate) (users.AlertProfile, error)
}

// ChatStore reads and appends chat messages.
type ChatStore interface {
	Recent(ctx context.Context, limit int) ([]chat.Message, error)
	Save(ctx context.Context, user, text string) (chat.Message, error)
}

// HealthChecker pings a dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds shared dependencies for all endpoint handlers.
type Deps struct {
	Feed   FeedService
	Engine *risk.Engine
	Alerts AlertStore
	Users  UserStore
	Chat   ChatStore
	DB     HealthChecker
	Config *config.Config
	Logger *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	Deps
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Engine == nil {
		d.Engine = risk.Default()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{Deps: d}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and docs location.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Cosmic Watch API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "cosmic-watch-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil || h.DB.HealthCheck(r.Context()) != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns feed cache statistics.
// @Summary Cache health check
// @Description Returns feed cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.Feed.CacheStats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
