package engine

import (
	"context"
	"log/slog"
	"time"

	"pointsrank/core"
)

// Result is what every ledger operation returns. Errors never cross the
// API as panics; callers must check Success.
type Result struct {
	Success   bool   `json:"success"`
	OldPoints int64  `json:"oldPoints,omitempty"`
	NewPoints int64  `json:"newPoints,omitempty"`
	OldRank   string `json:"oldRank,omitempty"`
	NewRank   string `json:"newRank,omitempty"`
	Err       error  `json:"-"`
}

// Service is the points ledger: it applies deltas against the profile
// store, appends activity entries, and fans results out on the bus.
type Service struct {
	storage Storage
	bus     *EventBus
	values  core.PointValues
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(storage Storage, bus *EventBus, values core.PointValues, logger *slog.Logger) *Service {
	if storage == nil || bus == nil {
		panic("NewService requires non-nil storage and bus")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{storage: storage, bus: bus, values: values, logger: logger, now: time.Now}
}

// Values returns the configured point award table.
func (s *Service) Values() core.PointValues { return s.values }

// Subscribe convenience method.
func (s *Service) Subscribe(channel string, handler func(context.Context, core.PointsUpdate)) func() {
	return s.bus.Subscribe(channel, handler)
}

// AddPoints applies delta to the user's total and logs the activity.
//
// The sequence is fixed: read current score (FetchError aborts with no
// write), apply the delta at the store (UpdateError aborts with no
// activity entry and no event), append the activity entry (failure is
// logged only), publish exactly one pointsUpdated event. Negative
// results are passed through unclamped.
func (s *Service) AddPoints(ctx context.Context, user core.UserID, delta int64, reason string) Result {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return Result{Success: false, Err: err}
	}
	if err := core.ValidateReason(reason); err != nil {
		return Result{Success: false, Err: err}
	}

	oldPoints, oldRank, err := s.storage.GetScore(ctx, normalized)
	if err != nil {
		ferr := &FetchError{User: normalized, Err: err}
		s.logger.Error("ledger fetch failed", "user_id", normalized, "op", "addPoints", "error", err)
		return Result{Success: false, Err: ferr}
	}
	if oldRank == "" {
		oldRank = core.RankForPoints(oldPoints)
	}

	upd, err := s.storage.AddPoints(ctx, normalized, delta)
	if err != nil {
		uerr := &UpdateError{User: normalized, Err: err}
		s.logger.Error("ledger update failed", "user_id", normalized, "op", "addPoints", "delta", delta, "error", err)
		return Result{Success: false, Err: uerr}
	}

	// the store's rank column is authoritative when readable; the local
	// derivation covers the staleness window
	newRank := upd.Rank
	if newRank == "" {
		newRank = core.RankForPoints(upd.NewPoints)
	}

	entry := core.Activity{
		UserID:    normalized,
		Points:    delta,
		Reason:    reason,
		CreatedAt: s.now().UTC(),
	}
	if err := s.storage.AppendActivity(ctx, entry); err != nil {
		aerr := &ActivityLogError{User: normalized, Err: err}
		s.logger.Warn("activity log append failed", "user_id", normalized, "reason", reason, "error", aerr)
	}

	update := core.PointsUpdate{
		UserID:    normalized,
		OldPoints: upd.OldPoints,
		NewPoints: upd.NewPoints,
		OldRank:   oldRank,
		NewRank:   newRank,
	}
	s.bus.Publish(ctx, core.ChannelPointsUpdated, update)

	return Result{
		Success:   true,
		OldPoints: upd.OldPoints,
		NewPoints: upd.NewPoints,
		OldRank:   oldRank,
		NewRank:   newRank,
	}
}

// GrantDailyLoginBonus awards the daily login bonus at most once per UTC
// calendar day. Returns true when the bonus was granted.
//
// The day boundary is pinned to UTC so a device crossing timezones near
// midnight cannot double-claim. The last-login timestamp only advances
// after a confirmed points write, so a failed grant stays retryable the
// same day.
func (s *Service) GrantDailyLoginBonus(ctx context.Context, user core.UserID) bool {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		s.logger.Error("daily bonus skipped", "user_id", user, "error", err)
		return false
	}

	last, err := s.storage.LastLogin(ctx, normalized)
	if err != nil {
		s.logger.Error("daily bonus: last login unreadable", "user_id", normalized, "error", err)
		return false
	}

	today := s.now().UTC().Format("2006-01-02")
	if !last.IsZero() && last.UTC().Format("2006-01-02") == today {
		return false
	}

	res := s.AddPoints(ctx, normalized, s.values.DailyLogin, core.ReasonDailyLogin)
	if !res.Success {
		s.logger.Error("daily bonus grant failed", "user_id", normalized, "error", res.Err)
		return false
	}

	if err := s.storage.SetLastLogin(ctx, normalized, s.now().UTC()); err != nil {
		// the bonus was granted; a failed marker write means the next
		// call today could double-award, so make it loud
		s.logger.Warn("daily bonus: last login write failed", "user_id", normalized, "error", err)
	}
	return true
}

// Score returns the current persisted points and rank.
func (s *Service) Score(ctx context.Context, user core.UserID) (core.Score, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.Score{}, err
	}
	points, rank, err := s.storage.GetScore(ctx, normalized)
	if err != nil {
		return core.Score{}, &FetchError{User: normalized, Err: err}
	}
	if rank == "" {
		rank = core.RankForPoints(points)
	}
	return core.Score{UserID: normalized, Points: points, Rank: rank}, nil
}

// Progress reports the next rank and points needed for a user.
func (s *Service) Progress(ctx context.Context, user core.UserID) (core.Progress, error) {
	score, err := s.Score(ctx, user)
	if err != nil {
		return core.Progress{}, err
	}
	return core.NextRankProgress(score.Points), nil
}

// History returns the newest activity entries, at most limit.
func (s *Service) History(ctx context.Context, user core.UserID, limit int) ([]core.Activity, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return s.storage.Activity(ctx, normalized, limit)
}

// Ping reports whether the backing store is reachable without touching
// any profile data.
func (s *Service) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func (s *Service) Close() { s.bus.Close() }
