package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pointsrank/core"
	"pointsrank/engine"
)

// Store persists all profiles to a single JSON file.
// Suitable for demos and small deployments. Like the memory adapter it
// recomputes the rank column on every points write.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.UserID]*record
}

type record struct {
	Points    int64           `json:"points"`
	Rank      string          `json:"rank"`
	LastLogin time.Time       `json:"last_login_date,omitempty"`
	Activity  []core.Activity `json:"activity,omitempty"`
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]*record{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]*record
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]*record, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(user core.UserID) *record {
	if rec, ok := s.data[user]; ok {
		return rec
	}
	rec := &record{Rank: core.RankForPoints(0)}
	s.data[user] = rec
	return rec
}

func (s *Store) GetScore(_ context.Context, user core.UserID) (int64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(user)
	return rec.Points, rec.Rank, nil
}

func (s *Store) AddPoints(_ context.Context, user core.UserID, delta int64) (engine.ScoreUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(user)
	next, err := core.AddSafe(rec.Points, delta)
	if err != nil {
		return engine.ScoreUpdate{}, err
	}
	old := rec.Points
	rec.Points = next
	rec.Rank = core.RankForPoints(next)
	if err := s.persist(); err != nil {
		rec.Points = old
		rec.Rank = core.RankForPoints(old)
		return engine.ScoreUpdate{}, err
	}
	return engine.ScoreUpdate{OldPoints: old, NewPoints: next, Rank: rec.Rank}, nil
}

func (s *Store) AppendActivity(_ context.Context, entry core.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(entry.UserID)
	rec.Activity = append(rec.Activity, entry)
	return s.persist()
}

func (s *Store) Activity(_ context.Context, user core.UserID, limit int) ([]core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(user)
	out := make([]core.Activity, 0, limit)
	for i := len(rec.Activity) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, rec.Activity[i])
	}
	return out, nil
}

func (s *Store) LastLogin(_ context.Context, user core.UserID) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(user).LastLogin, nil
}

func (s *Store) SetLastLogin(_ context.Context, user core.UserID, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(user).LastLogin = t
	return s.persist()
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Users(_ context.Context) ([]core.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.UserID, 0, len(s.data))
	for u := range s.data {
		out = append(out, u)
	}
	return out, nil
}

var _ engine.Storage = (*Store)(nil)
