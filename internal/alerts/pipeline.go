package alerts

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/cosmicwatch/cosmic-watch/internal/observability"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

// Deps holds the collaborators of a Checker. Publisher may be nil.
type Deps struct {
	Feed           FeedSource
	Users          UserSource
	Store          Writer
	Engine         *risk.Engine
	Publisher      Publisher
	DefaultMinRisk risk.Level
	Clock          clockwork.Clock
	Metrics        *observability.Metrics
	Logger         *slog.Logger
}

// Checker runs the alert pipeline.
type Checker struct {
	Deps
}

// NewChecker fills defaults for optional dependencies.
func NewChecker(d Deps) *Checker {
	if d.Engine == nil {
		d.Engine = risk.Default()
	}
	if !d.DefaultMinRisk.Valid() {
		d.DefaultMinRisk = risk.Moderate
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Checker{Deps: d}
}

// Run performs one alert check. A feed or user-listing failure aborts the
// run before any write. Per-user and per-object failures are logged and
// counted; they never stop the run.
func (c *Checker) Run(ctx context.Context) (result RunResult) {
	result.StartedAt = c.Clock.Now()
	defer func() {
		result.Duration = c.Clock.Since(result.StartedAt)
		c.observe(&result)
	}()

	// 1. Current feed
	objs, err := c.Feed.GetFeed(ctx, "")
	if err != nil {
		c.abort(&result, "feed unavailable", err)
		return result
	}
	result.FeedObjects = len(objs)

	// 2. Users who want alerts
	profiles, err := c.Users.FindAlertsEnabled(ctx)
	if err != nil {
		c.abort(&result, "user lookup failed", err)
		return result
	}
	if len(profiles) == 0 {
		c.Logger.Info("No users with alerts enabled")
		return result
	}

	// 3. IDs present in this feed
	feedIDs := make(map[string]struct{}, len(objs))
	for _, o := range objs {
		if o.ID == "" {
			continue
		}
		feedIDs[o.ID] = struct{}{}
	}

	// Assessments are pure; compute each at most once per run.
	assessed := make(map[int]risk.Assessment)
	assess := func(i int) risk.Assessment {
		a, ok := assessed[i]
		if !ok {
			a = c.Engine.Analyze(objs[i])
			assessed[i] = a
		}
		return a
	}

	// 4. Per-user intersection and threshold
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "run interrupted: "+err.Error())
			c.Logger.Warn("Alert run interrupted", "error", err, "users_remaining", len(profiles)-result.UsersChecked)
			return result
		}
		result.UsersChecked++
		if !p.AlertsEnabled {
			continue
		}

		watched := c.watchSet(p.ID, p.WatchedAsteroidIDs, feedIDs, &result)
		if len(watched) == 0 {
			continue
		}
		result.UsersMatched++
		threshold := p.Threshold(c.DefaultMinRisk)

		for i, o := range objs {
			if o.ID == "" {
				result.Skipped++
				c.Logger.Warn("Skipping feed object without id", "user_id", p.ID)
				continue
			}
			if _, ok := watched[o.ID]; !ok {
				continue
			}
			result.Candidates++

			a := assess(i)
			if !a.Level.AtLeast(threshold) {
				result.BelowThreshold++
				continue
			}

			c.record(ctx, NewRecord(p.ID, o, a.Level), &result)
		}
	}

	return result
}

// watchSet intersects a watch-list with the feed. Blank entries are
// malformed and skipped with a warning.
func (c *Checker) watchSet(userID string, ids []string, feedIDs map[string]struct{}, result *RunResult) map[string]struct{} {
	out := make(map[string]struct{})
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			result.Skipped++
			c.Logger.Warn("Skipping blank watch-list entry", "user_id", userID)
			continue
		}
		if _, ok := feedIDs[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func (c *Checker) record(ctx context.Context, rec Record, result *RunResult) {
	saved, created, err := c.Store.InsertIfAbsent(ctx, rec)
	if err != nil {
		result.Failed++
		result.Errors = append(result.Errors, rec.DedupKey()+": "+err.Error())
		c.Logger.Error("Alert insert failed",
			"user_id", rec.UserID, "asteroid_id", rec.AsteroidID, "error", err)
		return
	}
	if !created {
		result.Existing++
		return
	}
	result.Created++
	c.Logger.Info("Alert created",
		"user_id", saved.UserID,
		"asteroid_id", saved.AsteroidID,
		"asteroid_name", saved.AsteroidName,
		"risk_level", saved.RiskLevel)

	if c.Publisher == nil {
		return
	}
	if err := c.Publisher.Publish(ctx, saved); err != nil {
		result.PublishFailed++
		if c.Metrics != nil {
			c.Metrics.PublishErrors.Inc()
		}
		c.Logger.Warn("Alert publish failed", "key", saved.DedupKey(), "error", err)
	}
}

func (c *Checker) abort(result *RunResult, reason string, err error) {
	result.Aborted = true
	result.Errors = append(result.Errors, reason+": "+err.Error())
	c.Logger.Error("Alert run aborted", "reason", reason, "error", err)
}

func (c *Checker) observe(result *RunResult) {
	if c.Metrics == nil {
		return
	}
	outcome := "completed"
	if result.Aborted {
		outcome = "aborted"
	}
	c.Metrics.AlertRuns.WithLabelValues(outcome).Inc()
	c.Metrics.AlertRunDuration.Observe(result.Duration.Seconds())
	c.Metrics.AlertsCreated.Add(float64(result.Created))
	c.Metrics.AlertErrors.Add(float64(result.Failed))
}

