// Package jobs runs background maintenance on a cron schedule: a nightly
// rank reconciliation sweep and an hourly KPI snapshot.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"pointsrank/analytics"
	"pointsrank/core"
	"pointsrank/engine"
	"pointsrank/leaderboard"
)

// Scheduler owns the cron instance. Schedules are pinned to UTC to match
// the daily-bonus day boundary.
type Scheduler struct {
	cron      *cron.Cron
	storage   engine.Storage
	board     leaderboard.Board
	collector *analytics.Collector
	logger    *slog.Logger
}

func NewScheduler(storage engine.Storage, board leaderboard.Board, collector *analytics.Collector, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		storage:   storage,
		board:     board,
		collector: collector,
		logger:    logger,
	}
}

// Start registers and launches the background jobs.
func (s *Scheduler) Start(ctx context.Context) {
	// nightly sweep shortly after the UTC day rolls over
	_, _ = s.cron.AddFunc("5 0 * * *", func() {
		if err := s.Reconcile(ctx); err != nil {
			s.logger.Error("rank reconciliation failed", "error", err)
		}
	})

	if s.collector != nil {
		_, _ = s.cron.AddFunc("0 * * * *", func() {
			snap := s.collector.Snapshot()
			s.logger.Info("analytics snapshot",
				"updates", snap.Updates,
				"points_awarded", snap.PointsAwarded,
				"rank_ups", snap.RankUps,
				"active_today", snap.ActiveToday)
		})
	}

	s.cron.Start()
	s.logger.Info("job scheduler started")
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("job scheduler stopped")
}

// Reconcile walks every profile, reports rank columns that drifted from
// the derived value, and refreshes the leaderboard. The rank column is
// owned by the store's trigger, so drift is logged, not rewritten.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	users, err := s.storage.Users(ctx)
	if err != nil {
		return err
	}
	drifted := 0
	for _, user := range users {
		points, rank, err := s.storage.GetScore(ctx, user)
		if err != nil {
			s.logger.Warn("reconcile: score unreadable", "user_id", user, "error", err)
			continue
		}
		if want := core.RankForPoints(points); rank != "" && rank != want {
			drifted++
			s.logger.Warn("rank column drifted from point total",
				"user_id", user, "points", points, "rank", rank, "derived", want)
		}
		if s.board != nil {
			s.board.Update(user, points)
		}
	}
	s.logger.Info("rank reconciliation complete", "users", len(users), "drifted", drifted)
	return nil
}
