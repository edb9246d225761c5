package core

// ChannelPointsUpdated is the bus channel every ledger mutation is
// published on. At least two independent UI subscribers (profile view,
// home feed) consume it, so the payload field names are a wire contract.
const ChannelPointsUpdated = "pointsUpdated"

// PointsUpdate is the payload published on ChannelPointsUpdated after a
// successful ledger write. Field names must not change.
type PointsUpdate struct {
	UserID    UserID `json:"userId"`
	OldPoints int64  `json:"oldPoints"`
	NewPoints int64  `json:"newPoints"`
	OldRank   string `json:"oldRank"`
	NewRank   string `json:"newRank"`
}

// RankChanged reports whether the update crossed a rank boundary.
func (u PointsUpdate) RankChanged() bool {
	return u.OldRank != u.NewRank
}
