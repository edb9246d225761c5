// Package points is the top-level facade: it assembles a ranking service
// from a storage adapter, an event bus, and optional side-effect sinks.
package points

import (
	"context"
	"log/slog"

	"pointsrank/adapters/memory"
	"pointsrank/core"
	"pointsrank/engine"
	"pointsrank/leaderboard"
	"pointsrank/notify"
	"pointsrank/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	storage  engine.Storage
	mode     engine.DispatchMode
	values   core.PointValues
	logger   *slog.Logger
	hub      *realtime.Hub
	center   *notify.Center
	webhooks *notify.WebhookSink
	board    leaderboard.Board
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithValues overrides the point award table.
func WithValues(v core.PointValues) Option { return func(c *config) { c.values = v } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithRealtime wires a realtime hub to receive every points update.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithNotifier wires a notification center that raises rank-change banners.
func WithNotifier(n *notify.Center) Option { return func(c *config) { c.center = n } }

// WithWebhooks wires a webhook sink that posts every points update.
func WithWebhooks(w *notify.WebhookSink) Option { return func(c *config) { c.webhooks = w } }

// WithLeaderboard keeps a leaderboard in step with points updates.
func WithLeaderboard(b leaderboard.Board) Option { return func(c *config) { c.board = b } }

// New builds a configured Service. Defaults when options are omitted:
//   - storage: in-memory
//   - values: product defaults
//   - dispatch: async
func New(opts ...Option) *engine.Service {
	cfg := &config{mode: engine.DispatchAsync, values: core.DefaultPointValues()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}

	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewService(cfg.storage, bus, cfg.values, cfg.logger)

	// Side effects subscribe in a fixed order: realtime first so
	// connected clients see the update before derived views move.
	if cfg.hub != nil {
		hub := cfg.hub
		bus.Subscribe(core.ChannelPointsUpdated, func(ctx context.Context, u core.PointsUpdate) {
			hub.Broadcast(ctx, u)
		})
	}
	if cfg.center != nil {
		bus.Subscribe(core.ChannelPointsUpdated, cfg.center.HandleUpdate)
	}
	if cfg.webhooks != nil {
		sink := cfg.webhooks
		bus.Subscribe(core.ChannelPointsUpdated, func(_ context.Context, u core.PointsUpdate) {
			sink.OnUpdate(u)
		})
	}
	if cfg.board != nil {
		bus.Subscribe(core.ChannelPointsUpdated, leaderboard.Bridge(cfg.board))
	}

	return svc
}
