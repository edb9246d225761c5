package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// PointsResult mirrors the points endpoint response.
type PointsResult struct {
	Success   bool   `json:"success"`
	OldPoints int64  `json:"oldPoints"`
	NewPoints int64  `json:"newPoints"`
	OldRank   string `json:"oldRank"`
	NewRank   string `json:"newRank"`
}

// RankChanged reports whether the update crossed a rank boundary.
func (r PointsResult) RankChanged() bool { return r.OldRank != r.NewRank }

// LoginBonusResult mirrors the login-bonus endpoint response.
type LoginBonusResult struct {
	Granted bool   `json:"granted"`
	Points  int64  `json:"points"`
	Rank    string `json:"rank"`
}

// RankProgress describes the distance to the next rank. PointsNeeded is
// zero at the terminal rank.
type RankProgress struct {
	NextRank     string `json:"nextRank"`
	PointsNeeded int64  `json:"pointsNeeded"`
}

// UserScore mirrors the user endpoint response.
type UserScore struct {
	UserID   string       `json:"userId"`
	Points   int64        `json:"points"`
	Rank     string       `json:"rank"`
	Progress RankProgress `json:"progress"`
}

// ActivityEntry mirrors one ledger row in the activity endpoint response.
type ActivityEntry struct {
	UserID    string    `json:"user_id"`
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardEntry mirrors one row of the leaderboard endpoint response.
type LeaderboardEntry struct {
	Position int    `json:"position"`
	UserID   string `json:"userId"`
	Points   int64  `json:"points"`
	Rank     string `json:"rank"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
