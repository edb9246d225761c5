package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"pointsrank/adapters/jsonfile"
	mem "pointsrank/adapters/memory"
	redisAdapter "pointsrank/adapters/redis"
	sqlxAdapter "pointsrank/adapters/sqlx"
	"pointsrank/analytics"
	"pointsrank/api/httpapi"
	"pointsrank/config"
	"pointsrank/core"
	"pointsrank/engine"
	"pointsrank/jobs"
	"pointsrank/leaderboard"
	"pointsrank/notify"
	"pointsrank/points"
	"pointsrank/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Hub       *realtime.Hub
	Board     leaderboard.Board
	Collector *analytics.Collector
	Service   *engine.Service
	Scheduler *jobs.Scheduler
	Handler   http.Handler
	Server    *http.Server
}

func provideConfig() (*config.Config, error) {
	if path := os.Getenv("POINTSRANK_CONFIG"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideBoard() leaderboard.Board {
	return leaderboard.NewSkipList()
}

func provideCollector() *analytics.Collector {
	return analytics.NewCollector()
}

func provideStorage(cfg *config.Config) (engine.Storage, error) {
	return setupStorage(cfg)
}

func provideService(cfg *config.Config, logger *slog.Logger, storage engine.Storage,
	hub *realtime.Hub, board leaderboard.Board, collector *analytics.Collector) *engine.Service {

	opts := []points.Option{
		points.WithStorage(storage),
		points.WithDispatchMode(engine.DispatchAsync),
		points.WithValues(cfg.Points.Values()),
		points.WithLogger(logger),
		points.WithRealtime(hub),
		points.WithLeaderboard(board),
		points.WithNotifier(notify.NewCenter()),
	}
	if len(cfg.Notify.WebhookEndpoints) > 0 {
		opts = append(opts, points.WithWebhooks(notify.NewWebhookSink(cfg.Notify.WebhookEndpoints)))
	}

	svc := points.New(opts...)
	svc.Subscribe(core.ChannelPointsUpdated, collector.HandleUpdate)
	return svc
}

func provideScheduler(storage engine.Storage, board leaderboard.Board,
	collector *analytics.Collector, logger *slog.Logger) *jobs.Scheduler {
	return jobs.NewScheduler(storage, board, collector, logger)
}

func provideHandler(svc *engine.Service, hub *realtime.Hub, board leaderboard.Board, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, board, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
