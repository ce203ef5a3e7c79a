package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicwatch/cosmic-watch/internal/cache"
	"github.com/cosmicwatch/cosmic-watch/internal/observability"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakePurger) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	if pb.Counter != nil {
		return pb.GetCounter().GetValue()
	}
	return pb.GetGauge().GetValue()
}

func TestPurgeReadAlerts_Cutoff(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	p := &fakePurger{n: 4}
	m := observability.NewMetricsForTesting()
	d := Deps{Alerts: p, Clock: clockwork.NewFakeClockAt(now), Metrics: m, Logger: quietLogger()}

	n, err := PurgeReadAlerts(context.Background(), d, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, now.AddDate(0, 0, -30), p.cutoffs[0])
	assert.Equal(t, 4.0, counterValue(t, m.AlertsPurged))
}

func TestPurgeReadAlerts_Error(t *testing.T) {
	p := &fakePurger{err: errors.New("db down")}
	m := observability.NewMetricsForTesting()
	d := Deps{Alerts: p, Clock: clockwork.NewFakeClock(), Metrics: m}

	_, err := PurgeReadAlerts(context.Background(), d, 7)
	require.Error(t, err)
	assert.Equal(t, 0.0, counterValue(t, m.AlertsPurged))
}

func TestEvictCache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.New[int](true, clock)
	c.Set("old", 1, time.Minute)
	c.Set("new", 2, time.Hour)
	clock.Advance(2 * time.Minute)

	m := observability.NewMetricsForTesting()
	n := EvictCache(Deps{Cache: c, Metrics: m, Logger: quietLogger()})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c.Stats().TotalKeys)
	assert.Equal(t, 1.0, counterValue(t, m.CacheEntries))
}

func TestStart_TickersFire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := &fakePurger{}
	c := cache.New[int](true, clock)
	c.Set("k", 1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, Config{RetentionInterval: time.Hour, CacheInterval: 10 * time.Minute, RetentionDays: 30}, Deps{
			Alerts:  p,
			Cache:   c,
			Clock:   clock,
			Metrics: observability.NewMetricsForTesting(),
			Logger:  quietLogger(),
		})
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 2))

	clock.Advance(10 * time.Minute)
	assert.Eventually(t, func() bool { return c.Stats().TotalKeys == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, p.calls())

	clock.Advance(50 * time.Minute)
	assert.Eventually(t, func() bool { return p.calls() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStart_RetentionDisabled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := &fakePurger{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, Config{RetentionInterval: time.Hour, RetentionDays: 0}, Deps{Alerts: p, Clock: clock, Logger: quietLogger()})
		close(done)
	}()

	clock.Advance(3 * time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, p.calls())

	cancel()
	<-done
}
