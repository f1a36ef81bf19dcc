package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticketauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 30*time.Minute, cfg.Ticket.TTL)
	assert.Equal(t, "user", cfg.Ticket.Prefix)
	assert.Equal(t, "userTicket", cfg.Cookie.Name)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
http:
  addr: ":9090"
redis:
  addr: "redis:6379"
  db: 2
ticket:
  ttl: 45m
  prefix: sess
cookie:
  secure: true
throttle:
  enabled: true
  max_attempts: 3
  window: 1m
log:
  format: text
  level: debug
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 45*time.Minute, cfg.Ticket.TTL)
	assert.Equal(t, "sess", cfg.Ticket.Prefix)
	assert.True(t, cfg.Cookie.Secure)
	assert.True(t, cfg.Throttle.Enabled)
	assert.Equal(t, 3, cfg.Throttle.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Throttle.Window)
	assert.Equal(t, "text", cfg.Log.Format)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, "userTicket", cfg.Cookie.Name)
	assert.Equal(t, "/", cfg.Cookie.Path)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeYAML(t, `
http:
  addr: ":9090"
ticket:
  ttl: 45m
`)
	fs := newFlags(t, "--ticket.ttl=10m", "--redis.addr=cache:6379")

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Ticket.TTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	// Unset flags must not clobber the file with their defaults.
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoadDatabaseURLFromEnvironment(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "postgres://env@localhost/app")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env@localhost/app", cfg.Database.URL)

	fs := newFlags(t, "--database.url=postgres://flag@localhost/app")
	cfg, err = Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag@localhost/app", cfg.Database.URL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"log format":     "log:\n  format: xml\n",
		"log level":      "log:\n  level: loud\n",
		"ticket ttl":     "ticket:\n  ttl: 0s\n",
		"ticket prefix":  "ticket:\n  prefix: \"a:b\"\n",
		"cookie path":    "cookie:\n  path: relative\n",
		"throttle":       "throttle:\n  enabled: true\n  max_attempts: 0\n",
		"redis addr":     "redis:\n  addr: \"\"\n",
		"negative db":    "redis:\n  db: -1\n",
		"http addr":      "http:\n  addr: \"\"\n",
		"shutdown grace": "http:\n  shutdown_timeout: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body), nil)
			require.Error(t, err)

			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Ticket.TTL = 5 * time.Minute
	cfg.Cookie.Domain = "example.com"
	cfg.Cookie.Secure = true
	cfg.Throttle.Enabled = true

	engine := cfg.Engine()
	require.NoError(t, engine.Validate())
	assert.Equal(t, 5*time.Minute, engine.Ticket.TTL)
	assert.Equal(t, "example.com", engine.Cookie.Domain)
	assert.True(t, engine.Cookie.Secure)
	assert.True(t, engine.Cookie.HttpOnly)
	assert.Zero(t, engine.Cookie.MaxAge, "cookie lifetime follows the ticket TTL")
	assert.True(t, engine.Throttle.Enabled)
	assert.True(t, engine.Metrics.EnableLatencyHistograms)

	cfg.Metrics.Enabled = false
	engine = cfg.Engine()
	require.NoError(t, engine.Validate())
	assert.False(t, engine.Metrics.EnableLatencyHistograms)
}

func TestSlogLevel(t *testing.T) {
	level, err := LogConfig{Level: "warn"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = LogConfig{Level: "verbose"}.SlogLevel()
	assert.Error(t, err)
}
