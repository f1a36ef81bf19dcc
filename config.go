package ticketAuth

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/ticketAuth/cookie"
	"github.com/MrEthical07/ticketAuth/session"
)

// Config is the complete engine configuration. Start from [DefaultConfig]
// and override fields; [Builder.Build] validates the result.
type Config struct {
	Ticket   TicketConfig
	Cookie   cookie.Config
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TICKET CONFIG
====================================
*/

// TicketConfig controls ticket lifetime and cache layout.
type TicketConfig struct {
	TTL time.Duration
	// RedisPrefix is prepended to every ticket key as "<prefix>:<ticket>".
	RedisPrefix string
	// SlidingExpiration resets the TTL on every resolved request.
	SlidingExpiration bool
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig bounds failed login attempts. Disabled by default.
type ThrottleConfig struct {
	Enabled          bool
	MaxAttempts      int
	Window           time.Duration
	EnableIPThrottle bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	// DefaultTicketTTL is the lifetime of a ticket between resolved requests.
	DefaultTicketTTL = 30 * time.Minute

	maxTicketTTL = 30 * 24 * time.Hour
)

// DefaultConfig returns the production defaults: 30 minute sliding tickets
// under "user:" and a host-only HttpOnly "userTicket" cookie.
func DefaultConfig() Config {
	return Config{
		Ticket: TicketConfig{
			TTL:               DefaultTicketTTL,
			RedisPrefix:       session.DefaultPrefix,
			SlidingExpiration: true,
		},
		Cookie: cookie.DefaultConfig(DefaultTicketTTL),
		Throttle: ThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Ticket.TTL <= 0 {
		return errors.New("Ticket.TTL must be > 0")
	}
	if c.Ticket.TTL > maxTicketTTL {
		return errors.New("Ticket.TTL must be <= 720h")
	}
	if c.Ticket.RedisPrefix == "" {
		return errors.New("Ticket.RedisPrefix must not be empty")
	}
	if strings.ContainsAny(c.Ticket.RedisPrefix, " :") {
		return errors.New("Ticket.RedisPrefix must not contain spaces or ':'")
	}

	if c.Cookie.Name == "" {
		return errors.New("Cookie.Name must not be empty")
	}
	if strings.ContainsAny(c.Cookie.Name, " ;,=") {
		return errors.New("Cookie.Name contains invalid characters")
	}
	if c.Cookie.MaxAge < 0 {
		return errors.New("Cookie.MaxAge must be >= 0")
	}
	if c.Cookie.Path != "" && !strings.HasPrefix(c.Cookie.Path, "/") {
		return errors.New("Cookie.Path must start with '/'")
	}

	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts <= 0 {
			return errors.New("Throttle.MaxAttempts must be > 0 when enabled")
		}
		if c.Throttle.Window <= 0 {
			return errors.New("Throttle.Window must be > 0 when enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics.EnableLatencyHistograms requires Metrics.Enabled")
	}

	return nil
}

// cookieConfig returns the cookie settings with a zero MaxAge tied to the
// ticket TTL so the client-side expiry matches the server-side one.
func (c Config) cookieConfig() cookie.Config {
	cc := c.Cookie
	if cc.MaxAge == 0 {
		cc.MaxAge = c.Ticket.TTL
	}
	return cc
}
