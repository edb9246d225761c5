package engine

import (
	"context"
	"time"

	"pointsrank/core"
)

// ScoreUpdate reports the before/after totals of an applied delta and
// the rank the store returned after the write. Rank may be empty when
// the backend cannot read it back; callers fall back to a local
// derivation in that case.
type ScoreUpdate struct {
	OldPoints int64
	NewPoints int64
	Rank      string
}

// Storage abstracts the remote profile store.
//
// AddPoints must apply the delta atomically at the store boundary
// (atomic increment, RETURNING update, or an internal lock) so that
// concurrent ledger calls for the same user never lose a delta.
type Storage interface {
	// GetScore reads the current points and rank for a user.
	GetScore(ctx context.Context, user core.UserID) (points int64, rank string, err error)
	// AddPoints atomically applies delta and reports before/after state.
	AddPoints(ctx context.Context, user core.UserID, delta int64) (ScoreUpdate, error)
	// AppendActivity writes one immutable ledger entry.
	AppendActivity(ctx context.Context, entry core.Activity) error
	// Activity returns the newest entries first, at most limit.
	Activity(ctx context.Context, user core.UserID, limit int) ([]core.Activity, error)
	// LastLogin returns the recorded last-login time, zero if never set.
	LastLogin(ctx context.Context, user core.UserID) (time.Time, error)
	// SetLastLogin records the last-login time.
	SetLastLogin(ctx context.Context, user core.UserID, t time.Time) error
	// Users lists every known user id (used by reconciliation jobs and
	// leaderboard warm-up; order is unspecified).
	Users(ctx context.Context) ([]core.UserID, error)
	// Ping verifies the backend is reachable. It must not read or write
	// profile rows; health probes call it.
	Ping(ctx context.Context) error
}
