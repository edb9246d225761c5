package core

import (
	"math"
	"testing"
)

func TestAddSafe(t *testing.T) {
	if v, err := AddSafe(10, 5); err != nil || v != 15 {
		t.Fatalf("got %v %v", v, err)
	}
	if _, err := AddSafe(math.MaxInt64, 1); err == nil {
		t.Fatalf("expected overflow")
	}
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID(" Alice ")
	if err != nil || id != "alice" {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := NormalizeUserID("   "); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestValidateReason(t *testing.T) {
	if err := ValidateReason("Daily login"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateReason("  "); err == nil {
		t.Fatalf("expected empty reason err")
	}
}

func TestDefaultPointValues(t *testing.T) {
	v := DefaultPointValues()
	if v.DailyLogin != 10 || v.CreatePost != 25 || v.ReceivedJob != 50 ||
		v.CompletedJob != 100 || v.PositiveReview != 20 || v.ProfileCompletion != 15 {
		t.Fatalf("unexpected defaults: %+v", v)
	}
}

func TestPointsUpdateRankChanged(t *testing.T) {
	u := PointsUpdate{OldRank: "Beginner", NewRank: "Apprentice"}
	if !u.RankChanged() {
		t.Fatal("expected rank change")
	}
	u.NewRank = "Beginner"
	if u.RankChanged() {
		t.Fatal("unexpected rank change")
	}
}
