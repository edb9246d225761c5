package memory

import (
	"context"
	"sync"
	"time"

	"pointsrank/core"
	"pointsrank/engine"
)

// Store is a concurrent in-memory Storage implementation. It plays the
// backing store's rank trigger itself: every points write recomputes
// the rank column from the new total.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu        sync.Mutex
	points    int64
	rank      string
	lastLogin time.Time
	activity  []core.Activity
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{rank: core.RankForPoints(0)}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) GetScore(_ context.Context, user core.UserID) (int64, string, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.points, rec.rank, nil
}

func (s *Store) AddPoints(_ context.Context, user core.UserID, delta int64) (engine.ScoreUpdate, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	next, err := core.AddSafe(rec.points, delta)
	if err != nil {
		return engine.ScoreUpdate{}, err
	}
	old := rec.points
	rec.points = next
	rec.rank = core.RankForPoints(next)
	return engine.ScoreUpdate{OldPoints: old, NewPoints: next, Rank: rec.rank}, nil
}

func (s *Store) AppendActivity(_ context.Context, entry core.Activity) error {
	rec := s.getOrCreate(entry.UserID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.activity = append(rec.activity, entry)
	return nil
}

func (s *Store) Activity(_ context.Context, user core.UserID, limit int) ([]core.Activity, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	// newest first
	out := make([]core.Activity, 0, limit)
	for i := len(rec.activity) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, rec.activity[i])
	}
	return out, nil
}

func (s *Store) LastLogin(_ context.Context, user core.UserID) (time.Time, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.lastLogin, nil
}

func (s *Store) SetLastLogin(_ context.Context, user core.UserID, t time.Time) error {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.lastLogin = t
	return nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Users(_ context.Context) ([]core.UserID, error) {
	var out []core.UserID
	s.users.Range(func(k, _ any) bool {
		out = append(out, k.(core.UserID))
		return true
	})
	return out, nil
}

var _ engine.Storage = (*Store)(nil)
