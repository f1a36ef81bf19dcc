package ticketAuth

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/ticketAuth/internal/audit"
	"github.com/MrEthical07/ticketAuth/session"
)

// User is the persisted account record.
type User struct {
	ID            string
	Nickname      string
	PasswordHash  string
	Salt          string
	Head          string
	RegisterDate  time.Time
	LastLoginDate time.Time
	LoginCount    uint32
}

// Credentials is a login attempt. Password carries the client-side form hash,
// never the plaintext.
type Credentials struct {
	Identifier string
	Password   string
}

// Identity is the user snapshot a ticket resolved to.
//
// Fields reflect the user as of login; later record changes are not visible
// until the user logs in again.
type Identity struct {
	Ticket        string
	UserID        string
	Nickname      string
	Head          string
	RegisterDate  time.Time
	LastLoginDate time.Time
	LoginCount    uint32
	IssuedAt      time.Time
}

// NewUser is the input to [Engine.ProvisionUser]. An empty Salt asks the
// engine to generate one.
type NewUser struct {
	Identifier string
	Nickname   string
	Password   string
	Salt       string
	Head       string
}

// UserRepository looks up users for login. Implementations return
// ErrUserNotFound when no user matches.
type UserRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (User, error)
}

// UserProvisioner persists new users. Implementations return ErrUserExists
// for a duplicate identifier.
type UserProvisioner interface {
	CreateUser(ctx context.Context, user User) error
}

// LoginRecorder is optionally implemented by a UserRepository that tracks
// login activity. The engine calls it after a ticket is issued; a failure is
// logged and does not fail the login.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, identifier string, at time.Time) error
}

// TicketStore maps tickets to snapshots with a TTL. Get and GetSliding
// report expired and never-issued tickets as session.ErrTicketNotFound.
//
// [session.Store] is the Redis implementation.
type TicketStore interface {
	Put(ctx context.Context, ticket string, snap *session.Snapshot, ttl time.Duration) error
	Get(ctx context.Context, ticket string) (*session.Snapshot, error)
	Refresh(ctx context.Context, ticket string, ttl time.Duration) (bool, error)
}

// slidingStore is implemented by stores that can read and refresh a ticket
// in one round trip.
type slidingStore interface {
	GetSliding(ctx context.Context, ticket string, ttl time.Duration) (*session.Snapshot, error)
}

type (
	// AuditEvent is the canonical audit record emitted by the engine.
	AuditEvent = internalaudit.Event
	// AuditSink receives audit events from the dispatcher goroutine.
	AuditSink = internalaudit.Sink
	// NoOpSink drops every event.
	NoOpSink = internalaudit.NoOpSink
	// ChannelSink forwards events to a buffered channel.
	ChannelSink = internalaudit.ChannelSink
	// JSONWriterSink writes one JSON object per line.
	JSONWriterSink = internalaudit.JSONWriterSink
	// SlogSink logs events through a *slog.Logger.
	SlogSink = internalaudit.SlogSink
)

var (
	// NewChannelSink returns a sink backed by a channel of the given capacity.
	NewChannelSink = internalaudit.NewChannelSink
	// NewJSONWriterSink returns a sink writing JSON lines to w.
	NewJSONWriterSink = internalaudit.NewJSONWriterSink
	// NewSlogSink returns a sink logging through logger.
	NewSlogSink = internalaudit.NewSlogSink
)

func identityFromSnapshot(ticket string, s *session.Snapshot) Identity {
	return Identity{
		Ticket:        ticket,
		UserID:        s.UserID,
		Nickname:      s.Nickname,
		Head:          s.Head,
		RegisterDate:  s.RegisterDate,
		LastLoginDate: s.LastLoginDate,
		LoginCount:    s.LoginCount,
		IssuedAt:      s.IssuedAt,
	}
}

func snapshotFromUser(u User, issuedAt time.Time) *session.Snapshot {
	return &session.Snapshot{
		UserID:        u.ID,
		Nickname:      u.Nickname,
		Head:          u.Head,
		RegisterDate:  u.RegisterDate,
		LastLoginDate: u.LastLoginDate,
		LoginCount:    u.LoginCount,
		IssuedAt:      issuedAt,
		SchemaVersion: session.CurrentSchemaVersion,
	}
}
