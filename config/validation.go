package config

import (
	"errors"
	"fmt"
	"strings"

	"pointsrank/adapters/sqlx"
)

// validAdapters lists the storage adapters the server can construct.
var validAdapters = []string{"memory", "redis", "sql", "file"}

// Validate validates server settings.
func (s ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}

	if s.PathPrefix != "" && !strings.HasPrefix(s.PathPrefix, "/") {
		errs = append(errs, "path_prefix must start with /")
	}

	if s.ReadTimeout <= 0 {
		errs = append(errs, "read_timeout must be positive")
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, "write_timeout must be positive")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates storage settings for the selected adapter.
func (s StorageConfig) Validate() error {
	adapter := strings.ToLower(strings.TrimSpace(s.Adapter))

	switch adapter {
	case "memory":
		return nil

	case "redis":
		if s.Redis.Addr == "" {
			return errors.New("redis adapter requires redis.addr")
		}
		return nil

	case "sql":
		if s.SQL.Driver != sqlx.DriverPostgres && s.SQL.Driver != sqlx.DriverMySQL {
			return fmt.Errorf("sql adapter driver must be %q or %q, got %q",
				sqlx.DriverPostgres, sqlx.DriverMySQL, s.SQL.Driver)
		}
		if s.SQL.DSN == "" {
			return errors.New("sql adapter requires sql.dsn")
		}
		return nil

	case "file":
		return s.File.Validate()

	default:
		return fmt.Errorf("unknown adapter %q, must be one of: %s",
			s.Adapter, strings.Join(validAdapters, ", "))
	}
}

// Validate validates file storage settings.
func (f FileConfig) Validate() error {
	if strings.TrimSpace(f.Path) == "" {
		return errors.New("file adapter requires file.path")
	}
	if !strings.HasSuffix(strings.ToLower(f.Path), ".json") {
		return errors.New("file.path must have .json extension")
	}
	return nil
}

// Validate validates the point award overrides. Negative values are
// rejected; zero means "use the default".
func (p PointsConfig) Validate() error {
	var errs []string

	check := func(name string, v int64) {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s cannot be negative", name))
		}
	}
	check("daily_login", p.DailyLogin)
	check("create_post", p.CreatePost)
	check("received_job", p.ReceivedJob)
	check("completed_job", p.CompletedJob)
	check("positive_review", p.PositiveReview)
	check("profile_completion", p.ProfileCompletion)

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates logging settings.
func (l LoggingConfig) Validate() error {
	var errs []string

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", l.Level))
	}

	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("invalid format %q, must be json or text", l.Format))
	}

	switch strings.ToLower(l.Output) {
	case "stdout", "stderr":
	default:
		errs = append(errs, fmt.Sprintf("invalid output %q, must be stdout or stderr", l.Output))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
