package ticketAuth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/ticketAuth/cookie"
	"github.com/MrEthical07/ticketAuth/internal"
	internalaudit "github.com/MrEthical07/ticketAuth/internal/audit"
	"github.com/MrEthical07/ticketAuth/internal/rate"
	"github.com/MrEthical07/ticketAuth/password"
	"github.com/MrEthical07/ticketAuth/session"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/MrEthical07/ticketAuth"

// Builder assembles an Engine. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	tickets     TicketStore
	users       UserRepository
	provisioner UserProvisioner
	auditSink   AuditSink
	logger      *slog.Logger
	tracer      trace.TracerProvider

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the client used for the ticket store and login throttle.
// The engine never closes it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTicketStore overrides the Redis ticket store.
func (b *Builder) WithTicketStore(store TicketStore) *Builder {
	b.tickets = store
	return b
}

// WithUserRepository sets the login lookup. When repo also implements
// UserProvisioner it is used for ProvisionUser unless WithUserProvisioner
// says otherwise.
func (b *Builder) WithUserRepository(repo UserRepository) *Builder {
	b.users = repo
	return b
}

func (b *Builder) WithUserProvisioner(p UserProvisioner) *Builder {
	b.provisioner = p
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for infrastructure failures. Defaults to
// slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTracerProvider sets the provider for login and resolve spans. Defaults
// to the global otel provider.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracer = tp
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user repository required")
	}

	// -------- TICKET STORE --------
	tickets := b.tickets
	if tickets == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or ticket store required")
		}
		tickets = session.NewStore(b.redis, cfg.Ticket.RedisPrefix)
	}

	provisioner := b.provisioner
	if provisioner == nil {
		provisioner, _ = b.users.(UserProvisioner)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	tp := b.tracer
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	engine := &Engine{
		config:      cfg,
		tickets:     tickets,
		users:       b.users,
		provisioner: provisioner,
		hasher:      password.MD5Chain{},
		cookies:     cookie.NewManager(cfg.cookieConfig()),
		metrics:     NewMetrics(cfg.Metrics),
		logger:      logger.With("component", "ticketAuth"),
		tracer:      tp.Tracer(instrumentationName),
		now:         time.Now,
		newTicket:   internal.NewTicket,
	}
	if recorder, ok := b.users.(LoginRecorder); ok {
		engine.recorder = recorder
	}
	if sliding, ok := tickets.(slidingStore); ok {
		engine.sliding = sliding
	}

	// -------- LOGIN THROTTLE --------
	if cfg.Throttle.Enabled {
		if b.redis == nil {
			return nil, errors.New("Throttle requires redis client")
		}
		engine.limiter = rate.NewLoginLimiter(b.redis, rate.Config{
			MaxAttempts:      cfg.Throttle.MaxAttempts,
			Window:           cfg.Throttle.Window,
			EnableIPThrottle: cfg.Throttle.EnableIPThrottle,
		})
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}
