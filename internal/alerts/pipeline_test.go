package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicwatch/cosmic-watch/internal/neo"
	"github.com/cosmicwatch/cosmic-watch/internal/observability"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
	"github.com/cosmicwatch/cosmic-watch/internal/users"
)

// --- fakes ---

type fakeFeed struct {
	objs  []neo.Object
	err   error
	calls int
}

func (f *fakeFeed) GetFeed(context.Context, string) ([]neo.Object, error) {
	f.calls++
	return f.objs, f.err
}

type fakeUsers struct {
	profiles []users.AlertProfile
	err      error
}

func (f *fakeUsers) FindAlertsEnabled(context.Context) ([]users.AlertProfile, error) {
	return f.profiles, f.err
}

// memStore mimics the unique index on the dedup key.
type memStore struct {
	mu      sync.Mutex
	records map[string]Record
	nextID  int64
	failFor map[string]bool // user ids whose inserts fail
	inserts int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]Record{}, failFor: map[string]bool{}}
}

func (m *memStore) InsertIfAbsent(_ context.Context, rec Record) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.failFor[rec.UserID] {
		return rec, false, errors.New("connection reset")
	}
	if _, exists := m.records[rec.DedupKey()]; exists {
		return rec, false, nil
	}
	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	m.records[rec.DedupKey()] = rec
	return rec, true, nil
}

func (m *memStore) all() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}

type fakePublisher struct {
	published []Record
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, rec Record) error {
	f.published = append(f.published, rec)
	return f.err
}

// --- helpers ---

func fp(v float64) *float64 { return &v }

func sp(v string) *string { return &v }

// hazardousHigh scores 56 (HIGH): 30 + 15 + 0.5 + 10.
func hazardousHigh(id, date string) neo.Object {
	return neo.Object{
		ID: id, Name: "Asteroid " + id, Hazardous: true,
		Diameter: fp(1), MissDistance: fp(2_000_000), Velocity: fp(5),
		CloseApproachDate: sp(date),
	}
}

// harmless scores 0 (LOW).
func harmless(id string) neo.Object {
	return neo.Object{ID: id, Name: "Asteroid " + id}
}

func profile(id string, min risk.Level, watched ...string) users.AlertProfile {
	return users.AlertProfile{ID: id, WatchedAsteroidIDs: watched, AlertsEnabled: true, MinRiskLevel: min}
}

func newTestChecker(feed FeedSource, u UserSource, store Writer, pub Publisher) *Checker {
	return NewChecker(Deps{
		Feed:      feed,
		Users:     u,
		Store:     store,
		Publisher: pub,
		Clock:     clockwork.NewFakeClock(),
		Metrics:   observability.NewMetricsForTesting(),
	})
}

// --- tests ---

func TestRun_CreatesOneAlertForWatchedObjectAboveThreshold(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01"), harmless("B2")}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Moderate, "A1", "C3")}}
	store := newMemStore()
	pub := &fakePublisher{}

	result := newTestChecker(feed, u, store, pub).Run(context.Background())

	assert.False(t, result.Aborted)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.UsersMatched)

	recs := store.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "u1", recs[0].UserID)
	assert.Equal(t, "A1", recs[0].AsteroidID)
	assert.Equal(t, "Asteroid A1", recs[0].AsteroidName)
	assert.Equal(t, "2024-05-01", *recs[0].CloseApproachDate)
	assert.Equal(t, risk.High, recs[0].RiskLevel)
	assert.False(t, recs[0].Read)

	require.Len(t, pub.published, 1)
	assert.Equal(t, int64(1), pub.published[0].ID)
}

func TestRun_IsIdempotent(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Moderate, "A1")}}
	store := newMemStore()
	pub := &fakePublisher{}
	checker := newTestChecker(feed, u, store, pub)

	first := checker.Run(context.Background())
	second := checker.Run(context.Background())

	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Existing)
	assert.Len(t, store.all(), 1)
	assert.Len(t, pub.published, 1, "existing alerts are not re-published")
}

func TestRun_ExistingAlertKeepsOriginalLevel(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Moderate, "A1")}}
	store := newMemStore()
	checker := newTestChecker(feed, u, store, nil)

	first := checker.Run(context.Background())
	require.Equal(t, 1, first.Created)

	// Same object and date, now scoring 77 (CRITICAL).
	worse := hazardousHigh("A1", "2024-05-01")
	worse.Diameter, worse.MissDistance, worse.Velocity = fp(2), fp(500_000), fp(10)
	feed.objs = []neo.Object{worse}

	second := checker.Run(context.Background())

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Existing)
	recs := store.all()
	require.Len(t, recs, 1)
	assert.Equal(t, risk.High, recs[0].RiskLevel)
}

func TestRun_DuplicateFeedEntriesCreateOneAlert(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{
		hazardousHigh("A1", "2024-05-01"),
		hazardousHigh("A1", "2024-05-01"),
	}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Moderate, "A1")}}
	store := newMemStore()
	pub := &fakePublisher{}

	result := newTestChecker(feed, u, store, pub).Run(context.Background())

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Existing)
	assert.Len(t, store.all(), 1)
	assert.Len(t, pub.published, 1)
}

func TestRun_NewApproachDateIsNewAlert(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{
		hazardousHigh("A1", "2024-05-01"),
		hazardousHigh("A1", "2024-05-03"),
	}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Moderate, "A1")}}
	store := newMemStore()

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	assert.Equal(t, 2, result.Created)
	assert.Len(t, store.all(), 2)
}

func TestRun_MissingApproachDateDedupsAsOneKey(t *testing.T) {
	obj := hazardousHigh("A1", "")
	obj.CloseApproachDate = nil
	feed := &fakeFeed{objs: []neo.Object{obj}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Low, "A1")}}
	store := newMemStore()
	checker := newTestChecker(feed, u, store, nil)

	checker.Run(context.Background())
	checker.Run(context.Background())

	recs := store.all()
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].CloseApproachDate)
}

func TestRun_ThresholdIsInclusive(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{profiles: []users.AlertProfile{
		profile("at", risk.High, "A1"),
		profile("strict", risk.Critical, "A1"),
		profile("lenient", risk.Low, "A1"),
	}}
	store := newMemStore()

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.BelowThreshold)
	for _, r := range store.all() {
		assert.NotEqual(t, "strict", r.UserID)
	}
}

func TestRun_InvalidMinLevelFallsBackToDefault(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{harmless("B2"), {ID: "M1", Name: "M1", Hazardous: true}}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", "", "B2", "M1")}}
	store := newMemStore()

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	// Default MODERATE: the hazardous-only object (30) qualifies, the harmless one does not.
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.BelowThreshold)
}

func TestRun_FeedFailureAbortsWithoutWrites(t *testing.T) {
	feed := &fakeFeed{err: errors.New("NASA API: HTTP 503")}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Low, "A1")}}
	store := newMemStore()

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	assert.True(t, result.Aborted)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "HTTP 503")
	assert.Equal(t, 0, store.inserts)
}

func TestRun_UserLookupFailureAborts(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{err: errors.New("pool closed")}
	store := newMemStore()

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	assert.True(t, result.Aborted)
	assert.Equal(t, 0, store.inserts)
}

func TestRun_NoUsersIsNoOp(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	store := newMemStore()

	result := newTestChecker(feed, &fakeUsers{}, store, nil).Run(context.Background())

	assert.False(t, result.Aborted)
	assert.Equal(t, 0, result.UsersChecked)
	assert.Equal(t, 0, store.inserts)
}

func TestRun_NoIntersectionIsSilent(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Low, "Z9")}}
	store := newMemStore()

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	assert.Equal(t, 1, result.UsersChecked)
	assert.Equal(t, 0, result.UsersMatched)
	assert.Equal(t, 0, store.inserts)
	assert.Empty(t, result.Errors)
}

func TestRun_PerUserFailureDoesNotStopRun(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{profiles: []users.AlertProfile{
		profile("broken", risk.Low, "A1"),
		profile("ok", risk.Low, "A1"),
	}}
	store := newMemStore()
	store.failFor["broken"] = true

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	assert.False(t, result.Aborted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Created)
	recs := store.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].UserID)
}

func TestRun_PublishFailureKeepsInsert(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Low, "A1")}}
	store := newMemStore()
	pub := &fakePublisher{err: errors.New("broker unavailable")}

	result := newTestChecker(feed, u, store, pub).Run(context.Background())

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.PublishFailed)
	assert.Len(t, store.all(), 1)
}

func TestRun_SkipsBlankWatchListEntriesAndDisabledUsers(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	disabled := profile("off", risk.Low, "A1")
	disabled.AlertsEnabled = false
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Low, " ", "A1"), disabled}}
	store := newMemStore()

	result := newTestChecker(feed, u, store, nil).Run(context.Background())

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, "u1", store.all()[0].UserID)
}

func TestRun_CancelledContextStopsBetweenUsers(t *testing.T) {
	feed := &fakeFeed{objs: []neo.Object{hazardousHigh("A1", "2024-05-01")}}
	u := &fakeUsers{profiles: []users.AlertProfile{profile("u1", risk.Low, "A1")}}
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestChecker(feed, u, store, nil).Run(ctx)

	assert.Equal(t, 0, store.inserts)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "interrupted")
}

func TestRunResult_Summary(t *testing.T) {
	r := RunResult{FeedObjects: 12, UsersChecked: 3, UsersMatched: 2, Candidates: 4, Created: 1, Existing: 2, BelowThreshold: 1, Duration: 1500 * time.Millisecond}
	assert.Equal(t,
		"aborted=false objects=12 users=3 matched=2 candidates=4 below=1 created=1 existing=2 skipped=0 failed=0 dur=1.5s",
		r.Summary())
}
