package sdk

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	mem "pointsrank/adapters/memory"
	"pointsrank/api/httpapi"
	"pointsrank/core"
	"pointsrank/engine"
	"pointsrank/leaderboard"
	"pointsrank/realtime"
)

// newTestServer runs the real API handler against in-memory storage.
func newTestServer() (*httptest.Server, *engine.Service) {
	bus := engine.NewEventBus(engine.DispatchSync)
	svc := engine.NewService(mem.New(), bus, core.DefaultPointValues(), nil)

	hub := realtime.NewHub()
	svc.Subscribe(core.ChannelPointsUpdated, func(ctx context.Context, u core.PointsUpdate) {
		hub.Broadcast(ctx, u)
	})

	board := leaderboard.NewSkipList()
	svc.Subscribe(core.ChannelPointsUpdated, leaderboard.Bridge(board))

	handler := httpapi.NewMux(svc, hub, board, httpapi.Options{PathPrefix: "/api"})
	return httptest.NewServer(handler), svc
}

func TestClient_PointsLifecycle(t *testing.T) {
	srv, svc := newTestServer()
	defer srv.Close()
	defer svc.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	res, err := client.AddPoints(ctx, "alice", 150, core.ReasonCompletedJob)
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if res.NewPoints != 150 || res.NewRank != "Apprentice" || !res.RankChanged() {
		t.Fatalf("unexpected result: %+v", res)
	}

	score, err := client.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if score.Points != 150 || score.Rank != "Apprentice" {
		t.Fatalf("unexpected score: %+v", score)
	}
	if score.Progress.NextRank != "Skilled" || score.Progress.PointsNeeded != 150 {
		t.Fatalf("unexpected progress: %+v", score.Progress)
	}

	bonus, err := client.LoginBonus(ctx, "alice")
	if err != nil {
		t.Fatalf("login bonus: %v", err)
	}
	if !bonus.Granted || bonus.Points != 160 {
		t.Fatalf("unexpected bonus: %+v", bonus)
	}
	bonus, err = client.LoginBonus(ctx, "alice")
	if err != nil || bonus.Granted {
		t.Fatalf("second claim should be refused: %+v err=%v", bonus, err)
	}

	entries, err := client.Activity(ctx, "alice", 1)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(entries) != 1 || entries[0].Reason != core.ReasonDailyLogin {
		t.Fatalf("unexpected activity: %+v", entries)
	}

	top, err := client.Leaderboard(ctx, 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 1 || top[0].UserID != "alice" || top[0].Points != 160 {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_EmptyUserID(t *testing.T) {
	client, err := NewClient("http://localhost:0/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.AddPoints(context.Background(), " ", 1, "x"); err != ErrEmptyUserID {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
}

func TestClient_SubscribeUpdates(t *testing.T) {
	srv, svc := newTestServer()
	defer srv.Close()
	defer svc.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	updates, err := client.SubscribeUpdates(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if _, err := client.AddPoints(ctx, "bob", 25, core.ReasonCreatePost); err != nil {
		t.Fatalf("add points: %v", err)
	}

	select {
	case update := <-updates:
		if update.UserID != "bob" || update.NewPoints != 25 {
			t.Fatalf("unexpected update: %+v", update)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for update")
	}
}
