package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"pointsrank/core"
)

// Hub fans out points updates to connected UI clients.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan core.PointsUpdate
	next int
}

func NewHub() *Hub { return &Hub{subs: map[int]chan core.PointsUpdate{}} }

func (h *Hub) Subscribe(buffer int) (int, <-chan core.PointsUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan core.PointsUpdate, buffer)
	h.subs[id] = ch
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Broadcast(_ context.Context, update core.PointsUpdate) {
	h.mu.RLock()
	// copy to avoid holding lock during send
	receivers := make([]chan core.PointsUpdate, 0, len(h.subs))
	for _, ch := range h.subs {
		receivers = append(receivers, ch)
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- update:
		default: /* drop if full */
		}
	}
}

// MarshalJSON is a helper to convert updates to JSON bytes for WebSocket/SSE.
func MarshalJSON(update core.PointsUpdate) []byte {
	b, _ := json.Marshal(update)
	return b
}
