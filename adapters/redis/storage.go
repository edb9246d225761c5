package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pointsrank/core"
	"pointsrank/engine"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" env:"POINTSRANK_STORAGE_REDIS_ADDR"`
	Password     string        `json:"password,omitempty" env:"POINTSRANK_STORAGE_REDIS_PASSWORD"`
	DB           int           `json:"db" env:"POINTSRANK_STORAGE_REDIS_DB"`
	PoolSize     int           `json:"pool_size" env:"POINTSRANK_STORAGE_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" env:"POINTSRANK_STORAGE_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"POINTSRANK_STORAGE_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"POINTSRANK_STORAGE_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"POINTSRANK_STORAGE_REDIS_WRITE_TIMEOUT"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements engine.Storage on Redis.
// Data structure:
// - profile:{user_id}:points -> int64 point total
// - profile:{user_id}:rank -> rank label mirror
// - profile:{user_id}:last_login -> RFC3339 timestamp
// - profile:{user_id}:activity -> list of JSON activity entries, newest first
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func pointsKey(user core.UserID) string    { return fmt.Sprintf("profile:%s:points", user) }
func rankKey(user core.UserID) string      { return fmt.Sprintf("profile:%s:rank", user) }
func lastLoginKey(user core.UserID) string { return fmt.Sprintf("profile:%s:last_login", user) }
func activityKey(user core.UserID) string  { return fmt.Sprintf("profile:%s:activity", user) }

// Lua script for an atomic delta returning the old and new totals, with
// overflow protection. Redis has no client-visible compare-and-swap need
// here: the increment itself is the atomic boundary. Lua numbers are
// doubles, which are only exact up to 2^53, so the range guard sits at
// the largest safe total instead of the int64 bounds a double cannot
// represent.
var addPointsScript = redis.NewScript(`
	local key = KEYS[1]
	local delta = tonumber(ARGV[1])
	local old = tonumber(redis.call('GET', key) or '0')
	local next_val = old + delta

	if next_val > 9007199254740991 or next_val < -9007199254740991 then
		return redis.error_reply('points total out of range')
	end

	redis.call('SET', key, next_val)
	return {old, next_val}
`)

// AddPoints atomically applies delta and mirrors the derived rank label.
func (s *Store) AddPoints(ctx context.Context, user core.UserID, delta int64) (engine.ScoreUpdate, error) {
	result, err := addPointsScript.Run(ctx, s.client, []string{pointsKey(user)}, delta).Result()
	if err != nil {
		return engine.ScoreUpdate{}, fmt.Errorf("failed to add points: %w", err)
	}
	vals, ok := result.([]interface{})
	if !ok || len(vals) != 2 {
		return engine.ScoreUpdate{}, fmt.Errorf("unexpected result shape from Redis script: %T", result)
	}
	old, okOld := vals[0].(int64)
	next, okNext := vals[1].(int64)
	if !okOld || !okNext {
		return engine.ScoreUpdate{}, fmt.Errorf("unexpected result types from Redis script")
	}

	// no trigger on this backend: mirror the derived rank, best effort
	rank := core.RankForPoints(next)
	_ = s.client.Set(ctx, rankKey(user), rank, 0).Err()

	return engine.ScoreUpdate{OldPoints: old, NewPoints: next, Rank: rank}, nil
}

func (s *Store) GetScore(ctx context.Context, user core.UserID) (int64, string, error) {
	points, err := s.client.Get(ctx, pointsKey(user)).Int64()
	if err != nil {
		if err == redis.Nil {
			points = 0
		} else {
			return 0, "", fmt.Errorf("failed to read points: %w", err)
		}
	}
	rank, err := s.client.Get(ctx, rankKey(user)).Result()
	if err != nil {
		if err != redis.Nil {
			return 0, "", fmt.Errorf("failed to read rank: %w", err)
		}
		rank = core.RankForPoints(points)
	}
	return points, rank, nil
}

func (s *Store) AppendActivity(ctx context.Context, entry core.Activity) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.client.LPush(ctx, activityKey(entry.UserID), b).Err(); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func (s *Store) Activity(ctx context.Context, user core.UserID, limit int) ([]core.Activity, error) {
	raw, err := s.client.LRange(ctx, activityKey(user), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	out := make([]core.Activity, 0, len(raw))
	for _, item := range raw {
		var entry core.Activity
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue // Skip invalid entries
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) LastLogin(ctx context.Context, user core.UserID) (time.Time, error) {
	raw, err := s.client.Get(ctx, lastLoginKey(user)).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read last login: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed last login value: %w", err)
	}
	return t, nil
}

func (s *Store) SetLastLogin(ctx context.Context, user core.UserID, t time.Time) error {
	if err := s.client.Set(ctx, lastLoginKey(user), t.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("failed to write last login: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Users(ctx context.Context) ([]core.UserID, error) {
	keys, err := s.client.Keys(ctx, "profile:*:points").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]core.UserID, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(key, "profile:"), ":points")
		if id != "" {
			out = append(out, core.UserID(id))
		}
	}
	return out, nil
}

var _ engine.Storage = (*Store)(nil)
