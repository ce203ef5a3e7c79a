// Package feed serves normalized NEO feed snapshots, backed by NeoWs and a
// per-end-date TTL cache.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/cosmicwatch/cosmic-watch/internal/cache"
	"github.com/cosmicwatch/cosmic-watch/internal/neo"
	"github.com/cosmicwatch/cosmic-watch/internal/observability"
	"github.com/cosmicwatch/cosmic-watch/internal/provider/nasa"
)

// WindowDays is how far before the end date a feed request reaches.
const WindowDays = 7

// Upstream is the subset of the NeoWs client the service needs.
type Upstream interface {
	HasKey() bool
	FetchWindow(ctx context.Context, start, end time.Time) (map[string][]json.RawMessage, error)
	FetchByID(ctx context.Context, id string) (json.RawMessage, error)
}

// Snapshot is one cached feed: the objects for a window and when they were
// fetched. Objects is shared between readers and must not be modified.
type Snapshot struct {
	EndDate   string
	StartDate string
	FetchedAt time.Time
	Objects   []neo.Object
}

// Service fetches, normalizes and caches feed windows.
type Service struct {
	upstream Upstream
	cache    *cache.Cache[[]neo.Object]
	ttl      time.Duration
	clock    clockwork.Clock
	group    singleflight.Group
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService wires a feed service. The cache is owned by the caller so it
// can be inspected and evicted from outside.
func NewService(upstream Upstream, c *cache.Cache[[]neo.Object], ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		upstream: upstream,
		cache:    c,
		ttl:      ttl,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetFeed returns the normalized objects for the 7-day window ending at
// date (YYYY-MM-DD). An empty date means yesterday in UTC.
func (s *Service) GetFeed(ctx context.Context, date string) ([]neo.Object, error) {
	snap, err := s.GetSnapshot(ctx, date)
	if err != nil {
		return nil, err
	}
	return snap.Objects, nil
}

// GetSnapshot is GetFeed with the window bounds and fetch time attached.
func (s *Service) GetSnapshot(ctx context.Context, date string) (Snapshot, error) {
	end, err := s.resolveEnd(date)
	if err != nil {
		return Snapshot{}, err
	}
	key := end.Format(nasa.DateLayout)

	if objs, fetchedAt, ok := s.cache.Get(key); ok {
		s.metrics.FeedCache.WithLabelValues("hit").Inc()
		return newSnapshot(end, fetchedAt, objs), nil
	}

	if !s.upstream.HasKey() {
		return Snapshot{}, ErrMissingCredential
	}

	// Concurrent misses for one end-date share a single upstream request.
	// The shared call must not die with whichever caller started it.
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx), key, end)
	})
	if shared {
		s.metrics.FeedCache.WithLabelValues("shared").Inc()
	}
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (s *Service) refresh(ctx context.Context, key string, end time.Time) (Snapshot, error) {
	// Another caller may have filled the entry while this one queued.
	if objs, fetchedAt, ok := s.cache.Get(key); ok {
		s.metrics.FeedCache.WithLabelValues("hit").Inc()
		return newSnapshot(end, fetchedAt, objs), nil
	}
	s.metrics.FeedCache.WithLabelValues("miss").Inc()

	start := end.AddDate(0, 0, -WindowDays)
	began := s.clock.Now()
	buckets, err := s.upstream.FetchWindow(ctx, start, end)
	s.metrics.UpstreamDuration.WithLabelValues("feed").Observe(s.clock.Since(began).Seconds())
	if err != nil {
		s.metrics.UpstreamRequests.WithLabelValues("feed", "error").Inc()
		s.logger.Error("Feed fetch failed", "end_date", key, "error", err)
		return Snapshot{}, upstreamError(err)
	}

	objs := flatten(buckets)
	if len(objs) == 0 {
		s.metrics.UpstreamRequests.WithLabelValues("feed", "empty").Inc()
		s.logger.Warn("Feed returned no usable objects", "end_date", key, "days", len(buckets))
		return Snapshot{}, ErrEmptyFeed
	}
	s.metrics.UpstreamRequests.WithLabelValues("feed", "success").Inc()

	fetchedAt := s.cache.Set(key, objs, s.ttl)
	s.metrics.CacheEntries.Set(float64(s.cache.Stats().ActiveKeys))
	s.logger.Info("Feed refreshed",
		"end_date", key,
		"start_date", start.Format(nasa.DateLayout),
		"objects", len(objs))
	return newSnapshot(end, fetchedAt, objs), nil
}

// GetByID fetches and normalizes one object. Lookups are never cached.
func (s *Service) GetByID(ctx context.Context, id string) (neo.Object, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return neo.Object{}, ErrNotFound
	}
	if !s.upstream.HasKey() {
		return neo.Object{}, ErrMissingCredential
	}

	began := s.clock.Now()
	raw, err := s.upstream.FetchByID(ctx, id)
	s.metrics.UpstreamDuration.WithLabelValues("neo").Observe(s.clock.Since(began).Seconds())
	if err != nil {
		var upErr *nasa.UpstreamError
		switch {
		case errors.As(err, &upErr) && upErr.NotFound():
			s.metrics.UpstreamRequests.WithLabelValues("neo", "not_found").Inc()
			return neo.Object{}, ErrNotFound
		case errors.Is(err, nasa.ErrMissingKey):
			return neo.Object{}, ErrMissingCredential
		}
		s.metrics.UpstreamRequests.WithLabelValues("neo", "error").Inc()
		s.logger.Error("Asteroid lookup failed", "id", id, "error", err)
		return neo.Object{}, ErrLookupFailed
	}
	s.metrics.UpstreamRequests.WithLabelValues("neo", "success").Inc()

	obj, ok := neo.Normalize(raw)
	if !ok {
		return neo.Object{}, ErrNotFound
	}
	return obj, nil
}

// CacheStats reports the feed cache contents.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// resolveEnd parses an explicit end date or defaults to yesterday (UTC).
func (s *Service) resolveEnd(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		y, m, d := s.clock.Now().UTC().AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	end, err := time.Parse(nasa.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return end, nil
}

func newSnapshot(end, fetchedAt time.Time, objs []neo.Object) Snapshot {
	return Snapshot{
		EndDate:   end.Format(nasa.DateLayout),
		StartDate: end.AddDate(0, 0, -WindowDays).Format(nasa.DateLayout),
		FetchedAt: fetchedAt,
		Objects:   objs,
	}
}

// flatten normalizes every bucket, visiting days in ascending date order.
func flatten(buckets map[string][]json.RawMessage) []neo.Object {
	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	var out []neo.Object
	for _, day := range days {
		out = append(out, neo.NormalizeAll(buckets[day])...)
	}
	return out
}

// upstreamError keeps UpstreamError and missing-key errors intact so their
// message reaches the caller, and labels transport failures.
func upstreamError(err error) error {
	var upErr *nasa.UpstreamError
	if errors.As(err, &upErr) || errors.Is(err, nasa.ErrMissingKey) {
		return err
	}
	return fmt.Errorf("NASA API request failed: %w", err)
}
