package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	mem "pointsrank/adapters/memory"
	"pointsrank/api/httpapi"
	"pointsrank/core"
	"pointsrank/engine"
	"pointsrank/leaderboard"
	"pointsrank/notify"
	"pointsrank/points"
	"pointsrank/realtime"
)

// Demo server: in-memory storage, seeded users, banners logged to stdout.
// Try:
//
//	curl -X POST 'localhost:8080/users/carol/points?delta=100&reason=Completed+a+job'
//	curl 'localhost:8080/users/carol'
//	curl 'localhost:8080/leaderboard?n=5'
func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	store := mem.New()
	hub := realtime.NewHub()
	board := leaderboard.NewSkipList()
	center := notify.NewCenter(notify.WithShowFunc(func(b notify.Banner) {
		slog.Info("banner", "user_id", b.UserID, "title", b.Title, "message", b.Message)
	}))

	svc := points.New(
		points.WithStorage(store),
		points.WithDispatchMode(engine.DispatchSync),
		points.WithRealtime(hub),
		points.WithLeaderboard(board),
		points.WithNotifier(center),
	)
	defer svc.Close()

	// Seed a few profiles so the leaderboard has something to show
	seed := map[core.UserID]int64{
		"alice": 320,
		"bob":   145,
		"carol": 45,
	}
	for user, total := range seed {
		if res := svc.AddPoints(ctx, user, total, "Seeded demo profile"); !res.Success {
			slog.Error("seed failed", "user_id", user, "error", res.Err)
		}
	}

	http.Handle("/", httpapi.NewMux(svc, hub, board, httpapi.Options{}))

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
