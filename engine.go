package ticketAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/ticketAuth/cookie"
	internalaudit "github.com/MrEthical07/ticketAuth/internal/audit"
	"github.com/MrEthical07/ticketAuth/internal/rate"
	"github.com/MrEthical07/ticketAuth/password"
	"github.com/MrEthical07/ticketAuth/validation"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine authenticates logins into tickets and resolves tickets back into
// identities. Build one with [New].
type Engine struct {
	config      Config
	tickets     TicketStore
	sliding     slidingStore
	users       UserRepository
	recorder    LoginRecorder
	provisioner UserProvisioner
	hasher      password.MD5Chain
	cookies     *cookie.Manager
	limiter     *rate.LoginLimiter
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	logger      *slog.Logger
	tracer      trace.Tracer

	now       func() time.Time
	newTicket func() (string, error)
}

// Close flushes pending audit events. It does not close the Redis client or
// the user repository.
func (e *Engine) Close(ctx context.Context) error {
	if e == nil || e.audit == nil {
		return nil
	}
	return e.audit.Close(ctx)
}

// AuditDropped returns the number of audit events discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Cookies returns the manager issuing the ticket cookie.
func (e *Engine) Cookies() *cookie.Manager {
	return e.cookies
}

// TicketTTL returns the configured ticket lifetime.
func (e *Engine) TicketTTL() time.Duration {
	return e.config.Ticket.TTL
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies creds and issues a new ticket.
//
// Outcomes are returned, never panicked:
//   - *validation.FieldError (matches validation.ErrInvalid) for a malformed
//     identifier or short password.
//   - ErrLoginThrottled when the failed-attempt budget is spent.
//   - ErrInvalidCredentials, unwrapped, for an unknown identifier or a wrong
//     password.
//   - An error matching ErrInfrastructure when Redis or the repository fails.
//
// Every successful call issues a distinct ticket; earlier tickets for the
// same user stay valid until they expire.
func (e *Engine) Login(ctx context.Context, creds Credentials) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	ctx, span := e.tracer.Start(ctx, "ticketAuth.Login")
	defer span.End()

	start := e.now()
	defer func() {
		e.metrics.Observe(MetricLoginLatency, e.now().Sub(start))
	}()

	ticket, user, err := e.login(ctx, creds)
	if err != nil {
		span.SetStatus(codes.Error, auditErrorCode(err).String())
		return "", err
	}

	span.SetAttributes(attribute.String("ticketauth.user_id", user.ID))
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, ticket, nil, nil)
	return ticket, nil
}

func (e *Engine) login(ctx context.Context, creds Credentials) (string, User, error) {
	if ferr := validation.ValidateLogin(creds.Identifier, creds.Password); ferr != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ferr, func() map[string]string {
			return map[string]string{"field": ferr.Field}
		})
		return "", User{}, ferr
	}

	ip := clientIPFromContext(ctx)
	if e.limiter != nil {
		if err := e.limiter.Check(ctx, creds.Identifier, ip); err != nil {
			if errors.Is(err, rate.ErrThrottled) {
				e.metricInc(MetricLoginThrottled)
				e.emitAudit(ctx, auditEventLoginThrottled, false, creds.Identifier, "", ErrLoginThrottled, nil)
				return "", User{}, ErrLoginThrottled
			}
			e.metricInc(MetricLoginInfrastructure)
			return "", User{}, e.infraError(ctx, "throttle check", err)
		}
	}

	user, err := e.users.FindByIdentifier(ctx, creds.Identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", User{}, e.rejectCredentials(ctx, creds.Identifier, ip)
		}
		e.metricInc(MetricLoginInfrastructure)
		return "", User{}, e.infraError(ctx, "find user", err)
	}

	ok, err := e.hasher.Verify(creds.Password, user.Salt, user.PasswordHash)
	if err != nil {
		// A stored salt too short to index is a broken record, not a wrong
		// password.
		e.metricInc(MetricLoginInfrastructure)
		return "", User{}, e.infraError(ctx, "verify password", oops.
			Code(CodeConfiguration).
			With("user_id", user.ID).
			Wrap(err))
	}
	if !ok {
		return "", User{}, e.rejectCredentials(ctx, creds.Identifier, ip)
	}

	ticket, err := e.newTicket()
	if err != nil {
		e.metricInc(MetricLoginInfrastructure)
		return "", User{}, e.infraError(ctx, "generate ticket", err)
	}

	if err := e.tickets.Put(ctx, ticket, snapshotFromUser(user, e.now()), e.config.Ticket.TTL); err != nil {
		e.metricInc(MetricLoginInfrastructure)
		return "", User{}, e.infraError(ctx, "store ticket", err)
	}
	e.metricInc(MetricTicketIssued)

	if e.recorder != nil {
		if err := e.recorder.RecordLogin(ctx, user.ID, e.now()); err != nil {
			e.logger.WarnContext(ctx, "record login failed", "user_id", user.ID, "error", err)
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, creds.Identifier); err != nil {
			e.logger.WarnContext(ctx, "throttle reset failed", "user_id", user.ID, "error", err)
		}
	}

	return ticket, user, nil
}

// LoginHTTP runs Login and, on success, sets the ticket cookie on w.
func (e *Engine) LoginHTTP(w http.ResponseWriter, r *http.Request, creds Credentials) (string, error) {
	ticket, err := e.Login(r.Context(), creds)
	if err != nil {
		return "", err
	}
	e.cookies.Set(w, ticket)
	return ticket, nil
}

func (e *Engine) rejectCredentials(ctx context.Context, identifier, ip string) error {
	e.metricInc(MetricLoginFailure)
	if e.limiter != nil {
		if err := e.limiter.RecordFailure(ctx, identifier, ip); err != nil {
			e.logger.WarnContext(ctx, "throttle record failed", "error", err)
		}
	}
	e.emitAudit(ctx, auditEventLoginFailure, false, identifier, "", ErrInvalidCredentials, nil)
	return ErrInvalidCredentials
}

// infraError logs cause with full context and returns an error matching both
// ErrInfrastructure and cause. Callers must not surface its text.
func (e *Engine) infraError(ctx context.Context, op string, cause error) error {
	err := oops.
		Code(CodeInfrastructure).
		In("ticketAuth").
		With("operation", op).
		Wrap(fmt.Errorf("%w: %w", ErrInfrastructure, cause))

	e.logger.ErrorContext(ctx, "infrastructure failure", "operation", op, "error", err)
	trace.SpanFromContext(ctx).RecordError(err)
	return err
}

func (c AuditErrorCode) String() string {
	return string(c)
}
