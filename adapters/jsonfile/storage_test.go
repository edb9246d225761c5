package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pointsrank/core"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	upd, err := store.AddPoints(context.Background(), "alice", 150)
	if err != nil || upd.NewPoints != 150 {
		t.Fatalf("add points: %+v err=%v", upd, err)
	}
	if upd.Rank != "Apprentice" {
		t.Fatalf("rank %q", upd.Rank)
	}

	entry := core.Activity{UserID: "alice", Points: 150, Reason: "seed", CreatedAt: time.Now().UTC()}
	if err := store.AppendActivity(context.Background(), entry); err != nil {
		t.Fatalf("append activity: %v", err)
	}
	login := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := store.SetLastLogin(context.Background(), "alice", login); err != nil {
		t.Fatalf("set last login: %v", err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	points, rank, err := reloaded.GetScore(context.Background(), "alice")
	if err != nil || points != 150 || rank != "Apprentice" {
		t.Fatalf("got %d %q %v", points, rank, err)
	}
	acts, err := reloaded.Activity(context.Background(), "alice", 5)
	if err != nil || len(acts) != 1 || acts[0].Reason != "seed" {
		t.Fatalf("got %+v %v", acts, err)
	}
	last, err := reloaded.LastLogin(context.Background(), "alice")
	if err != nil || !last.Equal(login) {
		t.Fatalf("got %v %v", last, err)
	}
}
