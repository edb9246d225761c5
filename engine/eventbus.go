package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"pointsrank/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

type subscription struct {
	id      int64
	channel string
	fn      func(context.Context, core.PointsUpdate)
}

type queued struct {
	channel string
	update  core.PointsUpdate
}

// EventBus provides thread-safe pub/sub on named channels with sync and
// async dispatch. Instances are constructed and injected explicitly so
// tests can run isolated buses; there is no package-level singleton.
type EventBus struct {
	mode         DispatchMode
	mu           sync.RWMutex
	subs         map[string]map[int64]subscription
	order        map[string][]int64
	nextID       int64
	asyncQueue   chan queued
	asyncWorkers int
	dropped      atomic.Int64
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewEventBus(mode DispatchMode) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	eb := &EventBus{
		mode:         mode,
		subs:         make(map[string]map[int64]subscription),
		order:        make(map[string][]int64),
		asyncQueue:   make(chan queued, 2048),
		asyncWorkers: 4,
		ctx:          ctx,
		cancel:       cancel,
	}
	if mode == DispatchAsync {
		eb.startWorkers()
	}
	return eb
}

func (e *EventBus) startWorkers() {
	e.wg.Add(e.asyncWorkers)
	for i := 0; i < e.asyncWorkers; i++ {
		go func() {
			defer e.wg.Done()
			for {
				select {
				case q := <-e.asyncQueue:
					e.dispatchSync(context.Background(), q.channel, q.update)
				case <-e.ctx.Done():
					// deliver anything still queued before exiting
					for {
						select {
						case q := <-e.asyncQueue:
							e.dispatchSync(context.Background(), q.channel, q.update)
						default:
							return
						}
					}
				}
			}
		}()
	}
}

// Close stops async workers, waiting until they have drained every
// event queued before the call.
func (e *EventBus) Close() {
	e.cancel()
	e.wg.Wait()
}

// Dropped returns how many async events were discarded because the
// queue was full.
func (e *EventBus) Dropped() int64 {
	return e.dropped.Load()
}

// Subscribe registers a handler on a named channel. Handlers are invoked
// in subscription order. Returns an unsubscribe func that removes exactly
// this registration.
func (e *EventBus) Subscribe(channel string, handler func(context.Context, core.PointsUpdate)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[channel] == nil {
		e.subs[channel] = make(map[int64]subscription)
	}
	e.subs[channel][id] = subscription{id: id, channel: channel, fn: handler}
	e.order[channel] = append(e.order[channel], id)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[channel]; m != nil {
			delete(m, id)
		}
		ids := e.order[channel]
		for i, v := range ids {
			if v == id {
				e.order[channel] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
}

// Publish sends an update to the channel's subscribers.
func (e *EventBus) Publish(ctx context.Context, channel string, update core.PointsUpdate) {
	if e.mode == DispatchAsync {
		select {
		case e.asyncQueue <- queued{channel: channel, update: update}:
		default:
			// Drop rather than block the caller when the queue is full.
			e.dropped.Add(1)
			slog.Warn("event queue full, dropping update",
				"channel", channel,
				"user_id", update.UserID)
		}
		return
	}
	e.dispatchSync(ctx, channel, update)
}

func (e *EventBus) dispatchSync(ctx context.Context, channel string, update core.PointsUpdate) {
	e.mu.RLock()
	subs := e.subs[channel]
	// copy in subscription order to avoid holding the lock during callbacks
	handlers := make([]func(context.Context, core.PointsUpdate), 0, len(subs))
	for _, id := range e.order[channel] {
		if s, ok := subs[id]; ok {
			handlers = append(handlers, s.fn)
		}
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		e.invoke(ctx, channel, update, h)
	}
}

// invoke isolates handler faults: a panicking subscriber is logged and
// must not prevent the remaining subscribers from running.
func (e *EventBus) invoke(ctx context.Context, channel string, update core.PointsUpdate, h func(context.Context, core.PointsUpdate)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"channel", channel,
				"user_id", update.UserID,
				"panic", r)
		}
	}()
	h(ctx, update)
}
