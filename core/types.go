package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a user profile.
type UserID string

// Score is a snapshot of a user's persisted point total and rank label.
// The rank column is owned by the backing store (a trigger keeps it in
// step with points); this snapshot mirrors whatever the store returned.
type Score struct {
	UserID UserID `json:"user_id"`
	Points int64  `json:"points"`
	Rank   string `json:"rank"`
}

// Activity is one append-only ledger entry. Entries are immutable once
// written; they are never updated or deleted.
type Activity struct {
	UserID    UserID    `json:"user_id"`
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// ValidateReason ensures a ledger entry carries a non-empty description.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return errors.New("empty reason")
	}
	return nil
}
