package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosmicwatch/cosmic-watch/internal/config"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

// ErrNotFound is returned when an alert does not exist for the user.
var ErrNotFound = errors.New("alert not found")

// Store persists alerts in Postgres. Uniqueness of the dedup key is
// enforced by a unique index, so InsertIfAbsent is safe across processes.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates an alert store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertIfAbsent inserts rec unless its dedup key already exists, as one
// INSERT ... ON CONFLICT DO NOTHING statement.
func (s *Store) InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	err := s.pool.QueryRow(ctx, "alert_insert_if_absent",
		rec.UserID, rec.AsteroidID, rec.AsteroidName, rec.CloseApproachDate, string(rec.RiskLevel),
	).Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("insert alert %s: %w", rec.DedupKey(), err)
	}
	return rec, true, nil
}

// ListQuery selects a user's alerts.
type ListQuery struct {
	UserID     string
	Limit      int
	UnreadOnly bool
	MinLevel   risk.Level // empty = any
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit, fallback int) int {
	if fallback <= 0 || fallback > MaxListLimit {
		fallback = DefaultListLimit
	}
	switch {
	case limit <= 0:
		return fallback
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

// buildListQuery renders the list SQL, most recent first.
func buildListQuery(q ListQuery) (string, []interface{}, error) {
	b := sq.Select(
		"id", "user_id", "asteroid_id", "asteroid_name",
		"close_approach_date", "risk_level", "read", "created_at",
	).
		From(config.AlertsTable).
		Where(sq.Eq{"user_id": q.UserID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(ClampLimit(q.Limit, DefaultListLimit))).
		PlaceholderFormat(sq.Dollar)

	if q.UnreadOnly {
		b = b.Where(sq.Eq{"read": false})
	}
	if q.MinLevel.Valid() {
		var levels []string
		for _, l := range risk.Levels() {
			if l.AtLeast(q.MinLevel) {
				levels = append(levels, string(l))
			}
		}
		b = b.Where(sq.Eq{"risk_level": levels})
	}
	return b.ToSql()
}

// ListByUser returns a user's alerts, most recent first.
func (s *Store) ListByUser(ctx context.Context, q ListQuery) ([]Record, error) {
	q.Limit = ClampLimit(q.Limit, DefaultListLimit)
	query, args, err := buildListQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build alert list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, q.Limit)
	for rows.Next() {
		var r Record
		var level string
		if err := rows.Scan(&r.ID, &r.UserID, &r.AsteroidID, &r.AsteroidName,
			&r.CloseApproachDate, &level, &r.Read, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		r.RiskLevel = risk.Level(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkRead flags one of the user's alerts as read.
func (s *Store) MarkRead(ctx context.Context, userID string, id int64) error {
	tag, err := s.pool.Exec(ctx, "alert_mark_read", id, userID)
	if err != nil {
		return fmt.Errorf("mark alert %d read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReadBefore removes read alerts created before cutoff and returns
// how many were removed. Unread alerts are never purged.
func (s *Store) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "alert_delete_read_before", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge read alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}
