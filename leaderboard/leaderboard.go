package leaderboard

import (
	"context"

	"pointsrank/core"
)

// Entry is one leaderboard row.
type Entry struct {
	User   core.UserID `json:"user_id"`
	Points int64       `json:"points"`
}

// Rank derives the rank label for the entry's point total.
func (e Entry) Rank() string { return core.RankForPoints(e.Points) }

// Board abstracts leaderboard operations.
type Board interface {
	Update(user core.UserID, points int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
}

// Bridge returns a bus handler that keeps a board current with ledger
// updates. Subscribe it on the pointsUpdated channel.
func Bridge(board Board) func(context.Context, core.PointsUpdate) {
	return func(_ context.Context, u core.PointsUpdate) {
		board.Update(u.UserID, u.NewPoints)
	}
}
