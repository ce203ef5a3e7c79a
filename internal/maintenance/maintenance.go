// Package maintenance runs periodic housekeeping as Go tickers: retention
// of read alerts and eviction of expired feed snapshots.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cosmicwatch/cosmic-watch/internal/cache"
	"github.com/cosmicwatch/cosmic-watch/internal/observability"
)

// AlertPurger deletes read alerts created before a cutoff.
type AlertPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CacheEvicter drops expired entries and reports occupancy.
type CacheEvicter interface {
	Evict() int
	Stats() cache.Stats
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	RetentionInterval time.Duration // Purge read alerts
	CacheInterval     time.Duration // Evict expired feed snapshots
	RetentionDays     int           // 0 keeps alerts forever
}

// DefaultConfig returns production defaults for the given retention.
func DefaultConfig(retentionDays int) Config {
	return Config{
		RetentionInterval: 6 * time.Hour,
		CacheInterval:     30 * time.Minute,
		RetentionDays:     retentionDays,
	}
}

// Deps are the collaborators maintenance acts on. Alerts may be nil when
// retention is disabled.
type Deps struct {
	Alerts  AlertPurger
	Cache   CacheEvicter
	Clock   clockwork.Clock
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, cfg Config, d Deps) {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	d.Logger.Info("Maintenance tickers started",
		"retention", cfg.RetentionInterval,
		"retention_days", cfg.RetentionDays,
		"cache", cfg.CacheInterval)

	tickers := make([]clockwork.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Retention: delete read alerts older than RetentionDays
	if cfg.RetentionInterval > 0 && cfg.RetentionDays > 0 && d.Alerts != nil {
		t := d.Clock.NewTicker(cfg.RetentionInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.Chan(), func() {
			if _, err := PurgeReadAlerts(ctx, d, cfg.RetentionDays); err != nil {
				d.Logger.Warn("Retention: failed to purge read alerts", "error", err)
			}
		})
	}

	// Cache: drop expired feed snapshots and publish occupancy
	if cfg.CacheInterval > 0 && d.Cache != nil {
		t := d.Clock.NewTicker(cfg.CacheInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.Chan(), func() { EvictCache(d) })
	}

	<-ctx.Done()
	d.Logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// PurgeReadAlerts removes read alerts created more than days ago. Unread
// alerts are never purged.
func PurgeReadAlerts(ctx context.Context, d Deps, days int) (int64, error) {
	clock := d.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cutoff := clock.Now().UTC().AddDate(0, 0, -days)

	n, err := d.Alerts.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if d.Metrics != nil {
		d.Metrics.AlertsPurged.Add(float64(n))
	}
	if n > 0 && d.Logger != nil {
		d.Logger.Info("Retention: purged read alerts", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}

// EvictCache drops expired snapshots and returns how many were removed.
func EvictCache(d Deps) int {
	n := d.Cache.Evict()
	stats := d.Cache.Stats()
	if d.Metrics != nil {
		d.Metrics.CacheEntries.Set(float64(stats.ActiveKeys))
	}
	if d.Logger != nil {
		d.Logger.Debug("Cache: evicted expired snapshots",
			"evicted", n, "active", stats.ActiveKeys, "total", stats.TotalKeys)
	}
	return n
}
