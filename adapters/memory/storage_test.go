package memory

import (
	"context"
	"testing"
	"time"

	"pointsrank/core"
)

func TestMemoryStore(t *testing.T) {
	s := New()
	upd, err := s.AddPoints(context.Background(), core.UserID("u"), 50)
	if err != nil || upd.NewPoints != 50 || upd.OldPoints != 0 {
		t.Fatalf("got %+v %v", upd, err)
	}
	if upd.Rank != "Beginner" {
		t.Fatalf("rank %q", upd.Rank)
	}
	upd, err = s.AddPoints(context.Background(), core.UserID("u"), 60)
	if err != nil || upd.NewPoints != 110 {
		t.Fatalf("got %+v %v", upd, err)
	}
	// write recomputes the rank column like the store trigger would
	if upd.Rank != "Apprentice" {
		t.Fatalf("rank %q", upd.Rank)
	}
	points, rank, err := s.GetScore(context.Background(), core.UserID("u"))
	if err != nil || points != 110 || rank != "Apprentice" {
		t.Fatalf("got %d %q %v", points, rank, err)
	}
}

func TestMemoryStoreActivityNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, reason := range []string{"first", "second", "third"} {
		entry := core.Activity{UserID: "u", Points: 10, Reason: reason, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.AppendActivity(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Activity(ctx, "u", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Reason != "third" || got[1].Reason != "second" {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryStoreLastLogin(t *testing.T) {
	s := New()
	ctx := context.Background()
	last, err := s.LastLogin(ctx, "u")
	if err != nil || !last.IsZero() {
		t.Fatalf("got %v %v", last, err)
	}
	now := time.Now().UTC()
	if err := s.SetLastLogin(ctx, "u", now); err != nil {
		t.Fatal(err)
	}
	last, err = s.LastLogin(ctx, "u")
	if err != nil || !last.Equal(now) {
		t.Fatalf("got %v %v", last, err)
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.AddPoints(ctx, "a", 1)
	_, _ = s.AddPoints(ctx, "b", 1)
	users, err := s.Users(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("got %v %v", users, err)
	}
}
