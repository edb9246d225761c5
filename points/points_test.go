package points

import (
	"context"
	"testing"

	"pointsrank/adapters/memory"
	"pointsrank/core"
	"pointsrank/engine"
	"pointsrank/leaderboard"
	"pointsrank/notify"
	"pointsrank/realtime"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	board := leaderboard.NewSkipList()
	var banners []notify.Banner
	center := notify.NewCenter(notify.WithShowFunc(func(b notify.Banner) { banners = append(banners, b) }))

	svc := New(
		WithStorage(memory.New()),
		WithDispatchMode(engine.DispatchSync),
		WithRealtime(hub),
		WithNotifier(center),
		WithLeaderboard(board),
	)
	defer svc.Close()

	_, ch := hub.Subscribe(4)

	res := svc.AddPoints(context.Background(), "alice", svc.Values().CreatePost, core.ReasonCreatePost)
	if !res.Success || res.NewPoints != 25 {
		t.Fatalf("add points: %+v", res)
	}

	// realtime bridge should see the update
	ev := <-ch
	if ev.UserID != "alice" || ev.NewPoints != 25 {
		t.Fatalf("unexpected update: %+v", ev)
	}

	// leaderboard bridge should track the new total
	top := board.TopN(1)
	if len(top) != 1 || top[0].User != "alice" || top[0].Points != 25 {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}

	// no rank change yet, so no banner
	if len(banners) != 0 {
		t.Fatalf("unexpected banners: %+v", banners)
	}

	// cross the 100 threshold and expect a rank-up banner
	res = svc.AddPoints(context.Background(), "alice", 100, core.ReasonCompletedJob)
	if !res.Success || res.NewRank != "Apprentice" {
		t.Fatalf("rank up: %+v", res)
	}
	if len(banners) != 1 || banners[0].UserID != "alice" {
		t.Fatalf("expected one rank banner, got %+v", banners)
	}
}

func TestNewMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	res := svc.AddPoints(context.Background(), "bob", 3, "x")
	if !res.Success {
		t.Fatalf("fallback add points: %+v", res)
	}
	score, err := svc.Score(context.Background(), "bob")
	if err != nil {
		t.Fatalf("fallback score: %v", err)
	}
	if score.Points != 3 || score.Rank != "Beginner" {
		t.Fatalf("unexpected score: %+v", score)
	}
}
