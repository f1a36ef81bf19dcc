// Package cookie issues and reads the single session cookie carrying a ticket.
package cookie

import (
	"net/http"
	"time"
)

// DefaultName is the cookie carrying the ticket.
const DefaultName = "userTicket"

// Config describes how the ticket cookie is issued.
type Config struct {
	Name     string
	MaxAge   time.Duration
	Path     string
	Domain   string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// DefaultConfig returns a host-only, HttpOnly, SameSite=Lax cookie named
// DefaultName whose lifetime matches maxAge.
func DefaultConfig(maxAge time.Duration) Config {
	return Config{
		Name:     DefaultName,
		MaxAge:   maxAge,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// normalize fills the attributes every issued cookie needs.
func (c Config) normalize() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if c.SameSite == 0 {
		c.SameSite = http.SameSiteLaxMode
	}
	return c
}

// Manager sets and reads the ticket cookie with fixed attributes.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager returns a Manager for cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg.normalize(), now: time.Now}
}

// Name returns the cookie name.
func (m *Manager) Name() string {
	return m.cfg.Name
}

// Config returns the normalized configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Set issues the cookie carrying ticket. Calling it again with the same value
// restarts the client-side expiry.
func (m *Manager) Set(w http.ResponseWriter, ticket string) {
	c := m.cookie(ticket)
	if m.cfg.MaxAge > 0 {
		c.MaxAge = int(m.cfg.MaxAge / time.Second)
		c.Expires = m.now().Add(m.cfg.MaxAge).UTC()
	}
	http.SetCookie(w, c)
}

// Read returns the ticket carried by r. Missing and empty cookies both report
// false.
func (m *Manager) Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(m.cfg.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (m *Manager) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.Name,
		Value:    value,
		Path:     m.cfg.Path,
		Domain:   m.cfg.Domain,
		Secure:   m.cfg.Secure,
		HttpOnly: m.cfg.HttpOnly,
		SameSite: m.cfg.SameSite,
	}
}
