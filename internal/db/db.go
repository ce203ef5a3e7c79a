// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migrations and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosmicwatch/cosmic-watch/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must already
// be migrated: statements are prepared against it on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

const userColumns = "id, name, watched_asteroids, alerts_enabled, min_risk_level, created_at, updated_at"

// statements lists every prepared statement the API, scheduler and CLI use.
var statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Users
	"user_by_id":           "SELECT " + userColumns + " FROM " + config.UsersTable + " WHERE id = $1",
	"users_alerts_enabled": "SELECT " + userColumns + " FROM " + config.UsersTable + " WHERE alerts_enabled AND cardinality(watched_asteroids) > 0 ORDER BY id",
	"user_ensure": "INSERT INTO " + config.UsersTable + " (id, name, min_risk_level) VALUES ($1, $2, $3) " +
		"ON CONFLICT (id) DO NOTHING",
	"user_update_profile": "UPDATE " + config.UsersTable + " SET " +
		"watched_asteroids = COALESCE($2::text[], watched_asteroids), " +
		"alerts_enabled = COALESCE($3::boolean, alerts_enabled), " +
		"min_risk_level = COALESCE($4::text, min_risk_level), " +
		"updated_at = NOW() " +
		"WHERE id = $1 RETURNING " + userColumns,

	// Alerts: the conflict target matches the NULLS NOT DISTINCT unique index
	"alert_insert_if_absent": "INSERT INTO " + config.AlertsTable +
		" (user_id, asteroid_id, asteroid_name, close_approach_date, risk_level) VALUES ($1, $2, $3, $4, $5) " +
		"ON CONFLICT (user_id, asteroid_id, close_approach_date) DO NOTHING RETURNING id, created_at",
	"alert_mark_read":          "UPDATE " + config.AlertsTable + " SET read = TRUE WHERE id = $1 AND user_id = $2",
	"alert_delete_read_before": "DELETE FROM " + config.AlertsTable + " WHERE read AND created_at < $1",

	// Chat
	"chat_recent": "SELECT id, username, text, created_at FROM " + config.ChatMessagesTable +
		" ORDER BY created_at DESC, id DESC LIMIT $1",
	"chat_insert": "INSERT INTO " + config.ChatMessagesTable + " (id, username, text) VALUES ($1, $2, $3) RETURNING created_at",
}

// registerPreparedStatements prepares every statement on a new connection.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
