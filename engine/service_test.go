package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"pointsrank/core"
)

// fakeStore is an in-package Storage double with injectable failures.
type fakeStore struct {
	points    map[core.UserID]int64
	lastLogin map[core.UserID]time.Time
	activity  []core.Activity

	failFetch    bool
	failUpdate   bool
	failActivity bool
	failLogin    bool
	failPing     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		points:    map[core.UserID]int64{},
		lastLogin: map[core.UserID]time.Time{},
	}
}

func (f *fakeStore) GetScore(_ context.Context, user core.UserID) (int64, string, error) {
	if f.failFetch {
		return 0, "", errors.New("store unavailable")
	}
	p := f.points[user]
	return p, core.RankForPoints(p), nil
}

func (f *fakeStore) AddPoints(_ context.Context, user core.UserID, delta int64) (ScoreUpdate, error) {
	if f.failUpdate {
		return ScoreUpdate{}, errors.New("write rejected")
	}
	old := f.points[user]
	next := old + delta
	f.points[user] = next
	return ScoreUpdate{OldPoints: old, NewPoints: next, Rank: core.RankForPoints(next)}, nil
}

func (f *fakeStore) AppendActivity(_ context.Context, entry core.Activity) error {
	if f.failActivity {
		return errors.New("insert failed")
	}
	f.activity = append(f.activity, entry)
	return nil
}

func (f *fakeStore) Activity(_ context.Context, user core.UserID, limit int) ([]core.Activity, error) {
	var out []core.Activity
	for i := len(f.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if f.activity[i].UserID == user {
			out = append(out, f.activity[i])
		}
	}
	return out, nil
}

func (f *fakeStore) LastLogin(_ context.Context, user core.UserID) (time.Time, error) {
	if f.failLogin {
		return time.Time{}, errors.New("read failed")
	}
	return f.lastLogin[user], nil
}

func (f *fakeStore) SetLastLogin(_ context.Context, user core.UserID, t time.Time) error {
	f.lastLogin[user] = t
	return nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	if f.failPing {
		return errors.New("backend unreachable")
	}
	return nil
}

func (f *fakeStore) Users(_ context.Context) ([]core.UserID, error) {
	var out []core.UserID
	for u := range f.points {
		out = append(out, u)
	}
	return out, nil
}

func newTestService(store *fakeStore) (*Service, *[]core.PointsUpdate) {
	bus := NewEventBus(DispatchSync)
	svc := NewService(store, bus, core.DefaultPointValues(), nil)
	var events []core.PointsUpdate
	bus.Subscribe(core.ChannelPointsUpdated, func(ctx context.Context, u core.PointsUpdate) {
		events = append(events, u)
	})
	return svc, &events
}

func TestAddPointsCrossesRankBoundary(t *testing.T) {
	store := newFakeStore()
	store.points["u"] = 95
	svc, events := newTestService(store)

	res := svc.AddPoints(context.Background(), "u", 10, core.ReasonCreatePost)
	if !res.Success {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if res.OldPoints != 95 || res.NewPoints != 105 {
		t.Fatalf("got %+v", res)
	}
	if res.OldRank != "Beginner" || res.NewRank != "Apprentice" {
		t.Fatalf("got %+v", res)
	}
	if len(*events) != 1 {
		t.Fatalf("want exactly one event, got %d", len(*events))
	}
	ev := (*events)[0]
	if ev.UserID != "u" || ev.OldPoints != 95 || ev.NewPoints != 105 || ev.OldRank != "Beginner" || ev.NewRank != "Apprentice" {
		t.Fatalf("got %+v", ev)
	}
}

func TestAddPointsActivityRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	res := svc.AddPoints(context.Background(), "u", 25, "x")
	if !res.Success {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	entries, err := svc.History(context.Background(), "u", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Points != 25 || entries[0].Reason != "x" {
		t.Fatalf("got %+v", entries)
	}
}

func TestAddPointsFetchFailure(t *testing.T) {
	store := newFakeStore()
	store.failFetch = true
	svc, events := newTestService(store)

	res := svc.AddPoints(context.Background(), "u", 10, "x")
	if res.Success {
		t.Fatal("expected failure")
	}
	var ferr *FetchError
	if !errors.As(res.Err, &ferr) {
		t.Fatalf("want FetchError, got %v", res.Err)
	}
	if len(*events) != 0 || len(store.activity) != 0 {
		t.Fatal("no event and no activity on failure")
	}
}

func TestAddPointsUpdateFailure(t *testing.T) {
	store := newFakeStore()
	store.failUpdate = true
	svc, events := newTestService(store)

	res := svc.AddPoints(context.Background(), "u", 10, "x")
	if res.Success {
		t.Fatal("expected failure")
	}
	var uerr *UpdateError
	if !errors.As(res.Err, &uerr) {
		t.Fatalf("want UpdateError, got %v", res.Err)
	}
	if len(*events) != 0 || len(store.activity) != 0 {
		t.Fatal("no event and no activity on failure")
	}
}

func TestAddPointsActivityFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	store.failActivity = true
	svc, events := newTestService(store)

	res := svc.AddPoints(context.Background(), "u", 10, "x")
	if !res.Success {
		t.Fatalf("points write is the success criterion: %v", res.Err)
	}
	if len(*events) != 1 {
		t.Fatalf("want event despite activity failure, got %d", len(*events))
	}
}

func TestAddPointsValidation(t *testing.T) {
	store := newFakeStore()
	svc, events := newTestService(store)

	if res := svc.AddPoints(context.Background(), "  ", 10, "x"); res.Success {
		t.Fatal("expected failure on empty user")
	}
	if res := svc.AddPoints(context.Background(), "u", 10, " "); res.Success {
		t.Fatal("expected failure on empty reason")
	}
	if len(*events) != 0 {
		t.Fatal("no events expected")
	}
}

func TestAddPointsNegativeDeltaPassesThrough(t *testing.T) {
	store := newFakeStore()
	store.points["u"] = 5
	svc, _ := newTestService(store)

	res := svc.AddPoints(context.Background(), "u", -10, "adjustment")
	if !res.Success || res.NewPoints != -5 {
		t.Fatalf("negative results are not clamped: %+v", res)
	}
}

func TestAddPointsMonotonic(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	prev := int64(0)
	for i := 0; i < 20; i++ {
		res := svc.AddPoints(context.Background(), "u", 25, core.ReasonCreatePost)
		if !res.Success {
			t.Fatalf("unexpected failure: %v", res.Err)
		}
		if res.NewPoints < prev {
			t.Fatalf("totals must be non-decreasing: %d then %d", prev, res.NewPoints)
		}
		prev = res.NewPoints
	}
}

func TestDailyLoginBonusIdempotent(t *testing.T) {
	store := newFakeStore()
	svc, events := newTestService(store)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	if !svc.GrantDailyLoginBonus(context.Background(), "u") {
		t.Fatal("first call today must grant")
	}
	if svc.GrantDailyLoginBonus(context.Background(), "u") {
		t.Fatal("second call same day must be a no-op")
	}
	if store.points["u"] != 10 {
		t.Fatalf("want exactly one bonus, got %d points", store.points["u"])
	}
	if len(*events) != 1 {
		t.Fatalf("want exactly one event, got %d", len(*events))
	}
	// next UTC day grants again
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 0, 30, 0, 0, time.UTC) }
	if !svc.GrantDailyLoginBonus(context.Background(), "u") {
		t.Fatal("new day must grant")
	}
	if store.points["u"] != 20 {
		t.Fatalf("got %d", store.points["u"])
	}
}

func TestDailyLoginBonusAlreadyLoggedToday(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.lastLogin["u"] = now.Add(-2 * time.Hour)
	svc, events := newTestService(store)
	svc.now = func() time.Time { return now }

	if svc.GrantDailyLoginBonus(context.Background(), "u") {
		t.Fatal("same calendar day: no grant")
	}
	if store.points["u"] != 0 || len(*events) != 0 {
		t.Fatal("profile must be unchanged, no event emitted")
	}
}

func TestDailyLoginBonusFailedGrantStaysRetryable(t *testing.T) {
	store := newFakeStore()
	store.failUpdate = true
	svc, _ := newTestService(store)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	if svc.GrantDailyLoginBonus(context.Background(), "u") {
		t.Fatal("grant must fail with the points write")
	}
	// last login did not advance, so the day is not spent
	if !store.lastLogin["u"].IsZero() {
		t.Fatal("last login must only advance on a confirmed points write")
	}
	store.failUpdate = false
	if !svc.GrantDailyLoginBonus(context.Background(), "u") {
		t.Fatal("retry the same day must succeed")
	}
	if store.points["u"] != 10 {
		t.Fatalf("got %d", store.points["u"])
	}
}

func TestDailyLoginBonusUnreadableLastLogin(t *testing.T) {
	store := newFakeStore()
	store.failLogin = true
	svc, events := newTestService(store)

	if svc.GrantDailyLoginBonus(context.Background(), "u") {
		t.Fatal("unreadable last login fails silently")
	}
	if len(*events) != 0 {
		t.Fatal("no events expected")
	}
}

func TestScoreAndProgress(t *testing.T) {
	store := newFakeStore()
	store.points["u"] = 95
	svc, _ := newTestService(store)

	score, err := svc.Score(context.Background(), "U ")
	if err != nil || score.Points != 95 || score.Rank != "Beginner" {
		t.Fatalf("got %+v %v", score, err)
	}
	prog, err := svc.Progress(context.Background(), "u")
	if err != nil || prog.NextRank != "Apprentice" || prog.PointsNeeded != 5 {
		t.Fatalf("got %+v %v", prog, err)
	}
}

func TestPingPassesThroughAndTouchesNoProfiles(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	if err := svc.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	users, _ := store.Users(context.Background())
	if len(users) != 0 {
		t.Fatalf("ping must not create profiles, got %v", users)
	}

	store.failPing = true
	if err := svc.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure to surface")
	}
}
