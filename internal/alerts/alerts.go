// Package alerts matches watched NEOs against each user's risk threshold and
// records at most one alert per (user, asteroid, close approach date).
//
// Pipeline: fetch feed → load alert-enabled users → intersect watch-lists →
// analyze → insert-if-absent → publish. A ticker-driven scheduler runs the
// pipeline once at startup and then on a fixed interval.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/cosmicwatch/cosmic-watch/internal/neo"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
	"github.com/cosmicwatch/cosmic-watch/internal/users"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Record is one persisted alert. The triple (UserID, AsteroidID,
// CloseApproachDate) is unique; a nil date is a single key value.
type Record struct {
	ID                int64      `json:"id"`
	UserID            string     `json:"user_id"`
	AsteroidID        string     `json:"asteroid_id"`
	AsteroidName      string     `json:"asteroid_name"`
	CloseApproachDate *string    `json:"close_approach_date"`
	RiskLevel         risk.Level `json:"risk_level"`
	Read              bool       `json:"read"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DedupKey renders the uniqueness triple. A missing date renders as "-".
func (r Record) DedupKey() string {
	date := "-"
	if r.CloseApproachDate != nil {
		date = *r.CloseApproachDate
	}
	return r.UserID + "|" + r.AsteroidID + "|" + date
}

// NewRecord builds the candidate alert for a user and an assessed object.
func NewRecord(userID string, o neo.Object, level risk.Level) Record {
	return Record{
		UserID:            userID,
		AsteroidID:        o.ID,
		AsteroidName:      o.Name,
		CloseApproachDate: o.CloseApproachDate,
		RiskLevel:         level,
	}
}

// FeedSource supplies the current normalized feed.
type FeedSource interface {
	GetFeed(ctx context.Context, date string) ([]neo.Object, error)
}

// UserSource lists users who want alerts.
type UserSource interface {
	FindAlertsEnabled(ctx context.Context) ([]users.AlertProfile, error)
}

// Writer persists alerts. InsertIfAbsent must be a single atomic
// conditional insert: it reports created=false when the dedup key exists.
type Writer interface {
	InsertIfAbsent(ctx context.Context, rec Record) (saved Record, created bool, err error)
}

// Publisher fans newly created alerts out to other services.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

// RunResult tracks the outcome of one alert check.
type RunResult struct {
	StartedAt      time.Time
	Aborted        bool
	FeedObjects    int
	UsersChecked   int
	UsersMatched   int
	Candidates     int
	BelowThreshold int
	Created        int
	Existing       int
	Skipped        int
	Failed         int
	PublishFailed  int
	Duration       time.Duration
	Errors         []string
}

// Summary returns a human-readable summary.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"aborted=%t objects=%d users=%d matched=%d candidates=%d below=%d created=%d existing=%d skipped=%d failed=%d dur=%s",
		r.Aborted, r.FeedObjects, r.UsersChecked, r.UsersMatched, r.Candidates,
		r.BelowThreshold, r.Created, r.Existing, r.Skipped, r.Failed,
		r.Duration.Round(time.Millisecond))
}
