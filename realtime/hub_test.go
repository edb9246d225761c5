package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"pointsrank/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)

	h.Broadcast(context.Background(), core.PointsUpdate{UserID: "bob", OldPoints: 0, NewPoints: 10, OldRank: "Beginner", NewRank: "Beginner"})

	received := <-ch
	if received.UserID != "bob" || received.NewPoints != 10 {
		t.Fatalf("unexpected update: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestMarshalJSON(t *testing.T) {
	b := MarshalJSON(core.PointsUpdate{UserID: "alice", OldPoints: 95, NewPoints: 105, OldRank: "Beginner", NewRank: "Apprentice"})
	// field names are the wire contract consumed by UI subscribers
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"userId", "oldPoints", "newPoints", "oldRank", "newRank"} {
		if _, ok := out[field]; !ok {
			t.Fatalf("missing wire field %q in %s", field, b)
		}
	}
}
