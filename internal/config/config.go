// Package config loads the ticketauth service configuration.
//
// Values are layered, later sources winning: built-in defaults, an optional
// YAML file, then command-line flags that were explicitly set.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/MrEthical07/ticketAuth/cookie"
)

// DatabaseURLEnv is read when database.url is not configured.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Redis    RedisConfig    `koanf:"redis"`
	Database DatabaseConfig `koanf:"database"`
	Ticket   TicketConfig   `koanf:"ticket"`
	Cookie   CookieConfig   `koanf:"cookie"`
	Throttle ThrottleConfig `koanf:"throttle"`
	Audit    AuditConfig    `koanf:"audit"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type TicketConfig struct {
	TTL     time.Duration `koanf:"ttl"`
	Prefix  string        `koanf:"prefix"`
	Sliding bool          `koanf:"sliding"`
}

type CookieConfig struct {
	Name   string `koanf:"name"`
	Domain string `koanf:"domain"`
	Path   string `koanf:"path"`
	Secure bool   `koanf:"secure"`
}

type ThrottleConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxAttempts int           `koanf:"max_attempts"`
	Window      time.Duration `koanf:"window"`
}

// AuditConfig mirrors engine audit events into the service log.
type AuditConfig struct {
	Enabled bool `koanf:"enabled"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Defaults returns the configuration used when nothing else is supplied.
func Defaults() Config {
	lib := ticketAuth.DefaultConfig()
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Ticket: TicketConfig{
			TTL:     lib.Ticket.TTL,
			Prefix:  lib.Ticket.RedisPrefix,
			Sliding: lib.Ticket.SlidingExpiration,
		},
		Cookie: CookieConfig{
			Name: cookie.DefaultName,
			Path: "/",
		},
		Throttle: ThrottleConfig{
			Enabled:     lib.Throttle.Enabled,
			MaxAttempts: lib.Throttle.MaxAttempts,
			Window:      lib.Throttle.Window,
		},
		Audit: AuditConfig{Enabled: lib.Audit.Enabled},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{Enabled: lib.Metrics.Enabled},
	}
}

// RegisterFlags adds one flag per overridable key to fs. Flag names are the
// dotted config keys.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("http.addr", d.HTTP.Addr, "HTTP listen address")
	fs.String("redis.addr", d.Redis.Addr, "Redis address")
	fs.String("redis.password", "", "Redis password")
	fs.Int("redis.db", d.Redis.DB, "Redis database index")
	fs.String("database.url", "", "PostgreSQL connection URL (default $"+DatabaseURLEnv+")")
	fs.Duration("ticket.ttl", d.Ticket.TTL, "ticket lifetime")
	fs.String("ticket.prefix", d.Ticket.Prefix, "Redis key prefix for tickets")
	fs.String("cookie.name", d.Cookie.Name, "ticket cookie name")
	fs.String("cookie.domain", "", "ticket cookie domain")
	fs.String("cookie.path", d.Cookie.Path, "ticket cookie path")
	fs.Bool("cookie.secure", d.Cookie.Secure, "mark the ticket cookie Secure")
	fs.Bool("throttle.enabled", d.Throttle.Enabled, "throttle failed logins")
	fs.Int("throttle.max_attempts", d.Throttle.MaxAttempts, "failed logins allowed per window")
	fs.Duration("throttle.window", d.Throttle.Window, "throttle window")
	fs.Bool("audit.enabled", d.Audit.Enabled, "log audit events")
	fs.String("log.format", d.Log.Format, "log format (json or text)")
	fs.String("log.level", d.Log.Level, "log level")
	fs.Bool("metrics.enabled", d.Metrics.Enabled, "collect and expose metrics")
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the explicitly set flags in fs (skipped when nil).
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := setDefaults(k, Defaults()); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").With("operation", "load defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").With("operation", "decode").Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(k *koanf.Koanf, d Config) error {
	values := map[string]any{
		"http.addr":             d.HTTP.Addr,
		"http.shutdown_timeout": d.HTTP.ShutdownTimeout,
		"redis.addr":            d.Redis.Addr,
		"redis.password":        d.Redis.Password,
		"redis.db":              d.Redis.DB,
		"database.url":          d.Database.URL,
		"ticket.ttl":            d.Ticket.TTL,
		"ticket.prefix":         d.Ticket.Prefix,
		"ticket.sliding":        d.Ticket.Sliding,
		"cookie.name":           d.Cookie.Name,
		"cookie.domain":         d.Cookie.Domain,
		"cookie.path":           d.Cookie.Path,
		"cookie.secure":         d.Cookie.Secure,
		"throttle.enabled":      d.Throttle.Enabled,
		"throttle.max_attempts": d.Throttle.MaxAttempts,
		"throttle.window":       d.Throttle.Window,
		"audit.enabled":         d.Audit.Enabled,
		"log.format":            d.Log.Format,
		"log.level":             d.Log.Level,
		"metrics.enabled":       d.Metrics.Enabled,
	}
	for key, v := range values {
		if err := k.Set(key, v); err != nil {
			return fmt.Errorf("default %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks the service-level keys and the derived engine config.
func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return invalid("http.addr", errors.New("must not be empty"))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return invalid("http.shutdown_timeout", errors.New("must be > 0"))
	}
	if c.Redis.Addr == "" {
		return invalid("redis.addr", errors.New("must not be empty"))
	}
	if c.Redis.DB < 0 {
		return invalid("redis.db", errors.New("must be >= 0"))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", fmt.Errorf("unknown format %q", c.Log.Format))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return invalid("log.level", err)
	}
	engine := c.Engine()
	if err := engine.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}

func invalid(key string, err error) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Wrapf(err, "%s", key)
}

// Engine derives the ticketAuth library configuration.
func (c Config) Engine() ticketAuth.Config {
	cfg := ticketAuth.DefaultConfig()

	cfg.Ticket.TTL = c.Ticket.TTL
	cfg.Ticket.RedisPrefix = c.Ticket.Prefix
	cfg.Ticket.SlidingExpiration = c.Ticket.Sliding

	cfg.Cookie.Name = c.Cookie.Name
	cfg.Cookie.MaxAge = 0
	cfg.Cookie.Domain = c.Cookie.Domain
	cfg.Cookie.Path = c.Cookie.Path
	cfg.Cookie.Secure = c.Cookie.Secure
	cfg.Cookie.HttpOnly = true
	cfg.Cookie.SameSite = http.SameSiteLaxMode

	cfg.Throttle.Enabled = c.Throttle.Enabled
	cfg.Throttle.MaxAttempts = c.Throttle.MaxAttempts
	cfg.Throttle.Window = c.Throttle.Window

	cfg.Audit.Enabled = c.Audit.Enabled

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled
	return cfg
}

// SlogLevel parses the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return 0, err
	}
	return level, nil
}
