package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

// Store reads and writes profiles using prepared statements registered by
// the db package.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a user store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// FindAlertsEnabled returns every user with alerts on and a non-empty
// watch-list.
func (s *Store) FindAlertsEnabled(ctx context.Context) ([]AlertProfile, error) {
	rows, err := s.pool.Query(ctx, "users_alerts_enabled")
	if err != nil {
		return nil, fmt.Errorf("find alert users: %w", err)
	}
	defer rows.Close()

	var out []AlertProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert user: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns one profile or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (AlertProfile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx, "user_by_id", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return AlertProfile{}, ErrNotFound
	}
	if err != nil {
		return AlertProfile{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return p, nil
}

// Ensure creates the user with default settings if it does not exist yet
// and returns the stored profile.
func (s *Store) Ensure(ctx context.Context, id, name string, defaultMin risk.Level) (AlertProfile, error) {
	if _, err := s.pool.Exec(ctx, "user_ensure", id, name, string(defaultMin)); err != nil {
		return AlertProfile{}, fmt.Errorf("ensure user %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

// UpdateProfile applies a normalized partial update and returns the result.
// The user must exist.
func (s *Store) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (AlertProfile, error) {
	u, err := u.Normalize()
	if err != nil {
		return AlertProfile{}, err
	}

	var level *string
	if u.MinRiskLevel != nil {
		l := string(*u.MinRiskLevel)
		level = &l
	}

	p, err := scanProfile(s.pool.QueryRow(ctx, "user_update_profile",
		id, u.WatchedAsteroids, u.AlertsEnabled, level))
	if errors.Is(err, pgx.ErrNoRows) {
		return AlertProfile{}, ErrNotFound
	}
	if err != nil {
		return AlertProfile{}, fmt.Errorf("update user %s: %w", id, err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (AlertProfile, error) {
	var p AlertProfile
	var level string
	err := row.Scan(&p.ID, &p.Name, &p.WatchedAsteroidIDs, &p.AlertsEnabled, &level, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return AlertProfile{}, err
	}
	p.MinRiskLevel = risk.Level(level)
	if p.WatchedAsteroidIDs == nil {
		p.WatchedAsteroidIDs = []string{}
	}
	return p, nil
}
