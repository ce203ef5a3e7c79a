// Package users stores each user's watch-list and alert settings. Identity
// is supplied by the fronting auth gateway; this package never
// authenticates.
package users

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

// MaxWatched caps the size of a watch-list.
const MaxWatched = 200

// ErrNotFound is returned when no user has the requested id.
var ErrNotFound = errors.New("user not found")

// AlertProfile is the per-user state the alert scheduler reads.
type AlertProfile struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	WatchedAsteroidIDs []string   `json:"watched_asteroids"`
	AlertsEnabled      bool       `json:"alerts_enabled"`
	MinRiskLevel       risk.Level `json:"min_risk_level"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Threshold returns the profile's minimum level, or fallback when the
// stored value is empty or unrecognized.
func (p AlertProfile) Threshold(fallback risk.Level) risk.Level {
	if p.MinRiskLevel.Valid() {
		return p.MinRiskLevel
	}
	return fallback
}

// ProfileUpdate is a partial profile change. Nil fields are left as they are.
// WatchedAsteroids replaces the whole list.
type ProfileUpdate struct {
	WatchedAsteroids *[]string   `json:"watched_asteroids,omitempty"`
	AlertsEnabled    *bool       `json:"alerts_enabled,omitempty"`
	MinRiskLevel     *risk.Level `json:"min_risk_level,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.WatchedAsteroids == nil && u.AlertsEnabled == nil && u.MinRiskLevel == nil
}

// Normalize trims and de-duplicates the watch-list, canonicalizes the level
// and rejects values that cannot be stored.
func (u ProfileUpdate) Normalize() (ProfileUpdate, error) {
	out := u
	if u.WatchedAsteroids != nil {
		ids := CleanIDs(*u.WatchedAsteroids)
		if len(ids) > MaxWatched {
			return ProfileUpdate{}, fmt.Errorf("watch-list is limited to %d asteroids", MaxWatched)
		}
		out.WatchedAsteroids = &ids
	}
	if u.MinRiskLevel != nil {
		l, err := risk.ParseLevel(string(*u.MinRiskLevel))
		if err != nil {
			return ProfileUpdate{}, err
		}
		out.MinRiskLevel = &l
	}
	return out, nil
}

// CleanIDs trims ids, drops blanks and keeps the first occurrence of each.
func CleanIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
