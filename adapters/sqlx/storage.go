package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database drivers selected through Config.Driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"pointsrank/core"
	"pointsrank/engine"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver        `json:"driver" env:"POINTSRANK_STORAGE_SQL_DRIVER"`
	DSN             string        `json:"dsn" env:"POINTSRANK_STORAGE_SQL_DSN"`
	MaxOpenConns    int           `json:"max_open_conns" env:"POINTSRANK_STORAGE_SQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"POINTSRANK_STORAGE_SQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"POINTSRANK_STORAGE_SQL_CONN_MAX_LIFETIME"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements engine.Storage on a SQL database.
//
// Expected schema (migrations live with the deployment, not here):
//
//	profiles(id, points, rank, last_login_date)
//	points_activity(user_id, points, reason, created_at)
//
// On postgres the rank column is maintained by a database trigger and the
// delta is applied in a single UPDATE ... RETURNING statement. On mysql a
// short SELECT ... FOR UPDATE transaction provides the same atomicity.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection pool and verifies it.
func New(cfg Config) (*Store, error) {
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB creates a Store using an existing database handle (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

var errProfileNotFound = errors.New("profile not found")

func (s *Store) GetScore(ctx context.Context, user core.UserID) (int64, string, error) {
	var row struct {
		Points int64          `db:"points"`
		Rank   sql.NullString `db:"rank"`
	}
	q := s.db.Rebind(`SELECT points, rank FROM profiles WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, q, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", fmt.Errorf("%w: %s", errProfileNotFound, user)
		}
		return 0, "", fmt.Errorf("failed to read score: %w", err)
	}
	return row.Points, row.Rank.String, nil
}

func (s *Store) AddPoints(ctx context.Context, user core.UserID, delta int64) (engine.ScoreUpdate, error) {
	if s.driver == DriverPostgres {
		return s.addPointsReturning(ctx, user, delta)
	}
	return s.addPointsTx(ctx, user, delta)
}

// addPointsReturning applies the delta in one atomic statement; the
// trigger-updated rank comes back with the new total.
func (s *Store) addPointsReturning(ctx context.Context, user core.UserID, delta int64) (engine.ScoreUpdate, error) {
	var row struct {
		Points int64          `db:"points"`
		Rank   sql.NullString `db:"rank"`
	}
	q := s.db.Rebind(`UPDATE profiles SET points = points + ? WHERE id = ? RETURNING points, rank`)
	if err := s.db.GetContext(ctx, &row, q, delta, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.ScoreUpdate{}, fmt.Errorf("%w: %s", errProfileNotFound, user)
		}
		return engine.ScoreUpdate{}, fmt.Errorf("failed to update points: %w", err)
	}
	return engine.ScoreUpdate{
		OldPoints: row.Points - delta,
		NewPoints: row.Points,
		Rank:      row.Rank.String,
	}, nil
}

// addPointsTx serializes the read-modify-write behind a row lock for
// dialects without RETURNING, then reads the rank back inside the same
// transaction so a trigger-assigned value is observed.
func (s *Store) addPointsTx(ctx context.Context, user core.UserID, delta int64) (engine.ScoreUpdate, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return engine.ScoreUpdate{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var old int64
	q := tx.Rebind(`SELECT points FROM profiles WHERE id = ? FOR UPDATE`)
	if err := tx.GetContext(ctx, &old, q, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.ScoreUpdate{}, fmt.Errorf("%w: %s", errProfileNotFound, user)
		}
		return engine.ScoreUpdate{}, fmt.Errorf("failed to read points: %w", err)
	}

	next, err := core.AddSafe(old, delta)
	if err != nil {
		return engine.ScoreUpdate{}, err
	}

	q = tx.Rebind(`UPDATE profiles SET points = ? WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, q, next, user); err != nil {
		return engine.ScoreUpdate{}, fmt.Errorf("failed to update points: %w", err)
	}

	var rank sql.NullString
	q = tx.Rebind(`SELECT rank FROM profiles WHERE id = ?`)
	if err := tx.GetContext(ctx, &rank, q, user); err != nil {
		return engine.ScoreUpdate{}, fmt.Errorf("failed to read rank: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return engine.ScoreUpdate{}, fmt.Errorf("failed to commit: %w", err)
	}
	return engine.ScoreUpdate{OldPoints: old, NewPoints: next, Rank: rank.String}, nil
}

func (s *Store) AppendActivity(ctx context.Context, entry core.Activity) error {
	q := s.db.Rebind(`INSERT INTO points_activity (user_id, points, reason, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, entry.UserID, entry.Points, entry.Reason, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func (s *Store) Activity(ctx context.Context, user core.UserID, limit int) ([]core.Activity, error) {
	var rows []struct {
		UserID    core.UserID `db:"user_id"`
		Points    int64       `db:"points"`
		Reason    string      `db:"reason"`
		CreatedAt time.Time   `db:"created_at"`
	}
	q := s.db.Rebind(`SELECT user_id, points, reason, created_at FROM points_activity WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, q, user, limit); err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	out := make([]core.Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Activity{UserID: r.UserID, Points: r.Points, Reason: r.Reason, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *Store) LastLogin(ctx context.Context, user core.UserID) (time.Time, error) {
	var last sql.NullTime
	q := s.db.Rebind(`SELECT last_login_date FROM profiles WHERE id = ?`)
	if err := s.db.GetContext(ctx, &last, q, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%w: %s", errProfileNotFound, user)
		}
		return time.Time{}, fmt.Errorf("failed to read last login: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

func (s *Store) SetLastLogin(ctx context.Context, user core.UserID, t time.Time) error {
	q := s.db.Rebind(`UPDATE profiles SET last_login_date = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, q, t, user); err != nil {
		return fmt.Errorf("failed to write last login: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users(ctx context.Context) ([]core.UserID, error) {
	var ids []core.UserID
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM profiles`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

var _ engine.Storage = (*Store)(nil)
