package alerts

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicwatch/cosmic-watch/internal/observability"
)

type countingRunner struct {
	runs    atomic.Int32
	release chan struct{}
	sawDL   atomic.Bool
}

func (r *countingRunner) Run(ctx context.Context) RunResult {
	r.runs.Add(1)
	if _, ok := ctx.Deadline(); ok {
		r.sawDL.Store(true)
	}
	if r.release != nil {
		<-r.release
	}
	return RunResult{}
}

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		StartScheduler(ctx, runner, time.Hour, time.Minute, clock, observability.NewMetricsForTesting(), nil)
		close(done)
	}()

	require.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, runner.sawDL.Load(), "each run is time-boxed")

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return runner.runs.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	s := NewScheduler(runner, time.Hour, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting(), nil)
	ctx := context.Background()

	s.trigger(ctx)
	require.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, s.Running())

	s.trigger(ctx)
	_, ok := s.RunNow(ctx)
	assert.False(t, ok)

	close(runner.release)
	s.wg.Wait()
	assert.False(t, s.Running())
	assert.Equal(t, int32(1), runner.runs.Load())

	_, ok = s.RunNow(ctx)
	assert.True(t, ok)
	assert.Equal(t, int32(2), runner.runs.Load())
}
