package ticketAuth

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/ticketAuth/session"
	"go.opentelemetry.io/otel/attribute"
)

// Resolve turns a ticket into the identity captured at login. The boolean is
// false for an empty, expired or never-issued ticket.
//
// Resolve never returns an error. A Redis failure or corrupt snapshot is
// logged and resolves as anonymous. With sliding expiration enabled a hit
// resets the ticket TTL to the configured value.
func (e *Engine) Resolve(ctx context.Context, ticket string) (Identity, bool) {
	if e == nil {
		return Identity{}, false
	}
	if ticket == "" {
		e.metricInc(MetricResolveAnonymous)
		return Identity{}, false
	}

	ctx, span := e.tracer.Start(ctx, "ticketAuth.Resolve")
	defer span.End()

	start := e.now()
	defer func() {
		e.metrics.Observe(MetricResolveLatency, e.now().Sub(start))
	}()

	snap, err := e.lookup(ctx, ticket)
	if err != nil {
		if errors.Is(err, session.ErrTicketNotFound) {
			e.metricInc(MetricResolveMiss)
			span.SetAttributes(attribute.Bool("ticketauth.hit", false))
			return Identity{}, false
		}
		e.metricInc(MetricResolveError)
		e.logger.ErrorContext(ctx, "ticket resolution failed", "error", err)
		span.RecordError(err)
		return Identity{}, false
	}

	e.metricInc(MetricResolveHit)
	span.SetAttributes(
		attribute.Bool("ticketauth.hit", true),
		attribute.String("ticketauth.user_id", snap.UserID),
	)
	return identityFromSnapshot(ticket, snap), true
}

func (e *Engine) lookup(ctx context.Context, ticket string) (*session.Snapshot, error) {
	ttl := e.config.Ticket.TTL
	if !e.config.Ticket.SlidingExpiration {
		return e.tickets.Get(ctx, ticket)
	}
	if e.sliding != nil {
		return e.sliding.GetSliding(ctx, ticket, ttl)
	}

	snap, err := e.tickets.Get(ctx, ticket)
	if err != nil {
		return nil, err
	}
	// The snapshot is already read, so a failed refresh only costs the
	// extension and the request still resolves.
	if _, err := e.tickets.Refresh(ctx, ticket, ttl); err != nil {
		e.logger.WarnContext(ctx, "ticket refresh failed", "error", err)
	}
	return snap, nil
}

// ResolveRequest reads the ticket cookie from r and resolves it. On a hit with
// sliding expiration it re-sets the cookie on w so the client-side expiry
// tracks the server-side one. Requests without the cookie are anonymous.
func (e *Engine) ResolveRequest(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	if e == nil {
		return Identity{}, false
	}

	ticket, ok := e.cookies.Read(r)
	if !ok {
		e.metricInc(MetricResolveAnonymous)
		return Identity{}, false
	}

	id, ok := e.Resolve(r.Context(), ticket)
	if !ok {
		return Identity{}, false
	}
	if e.config.Ticket.SlidingExpiration && w != nil {
		e.cookies.Set(w, ticket)
	}
	return id, true
}
