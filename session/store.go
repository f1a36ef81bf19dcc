package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix produces keys of the form "user:<ticket>".
const DefaultPrefix = "user"

// ErrRedisUnavailable wraps every transport or server failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrTicketNotFound is returned for tickets that were never issued or have
// expired. The two cases are indistinguishable.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrInvalidTTL is returned when a write is attempted without a positive TTL.
var ErrInvalidTTL = errors.New("ticket ttl must be positive")

// Store maps tickets to encoded snapshots in Redis.
//
// Store keeps no per-ticket state of its own and is safe for concurrent use.
// Concurrent Refresh calls for one ticket are plain overwrites of the expiry,
// so the last writer wins and the value is unaffected.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a ticket store using prefix for its keys. An empty prefix
// selects DefaultPrefix.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

// Key returns the Redis key holding ticket.
func (s *Store) Key(ticket string) string {
	return s.prefix + ":" + ticket
}

// Put writes snap under ticket with the given ttl, replacing any previous
// value.
func (s *Store) Put(ctx context.Context, ticket string, snap *Snapshot, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.Key(ticket), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the snapshot stored under ticket without touching its expiry.
func (s *Store) Get(ctx context.Context, ticket string) (*Snapshot, error) {
	data, err := s.redis.Get(ctx, s.Key(ticket)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return Decode(data)
}

// Refresh resets the expiry of ticket to ttl. It reports false when the
// ticket no longer exists.
func (s *Store) Refresh(ctx context.Context, ticket string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	ok, err := s.redis.Expire(ctx, s.Key(ticket), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ok, nil
}

// GetSliding reads ticket and resets its expiry to ttl in one round trip.
//
// EXPIRE on a missing key is a no-op, so a miss leaves nothing behind.
func (s *Store) GetSliding(ctx context.Context, ticket string, ttl time.Duration) (*Snapshot, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	key := s.Key(ticket)

	var get *redis.StringCmd
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	data, err := get.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return Decode(data)
}

// TTL returns the remaining lifetime of ticket.
func (s *Store) TTL(ctx context.Context, ticket string) (time.Duration, error) {
	ttl, err := s.redis.PTTL(ctx, s.Key(ticket)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// go-redis passes the raw -2 through for missing keys.
	if ttl == -2 {
		return 0, ErrTicketNotFound
	}
	return ttl, nil
}

// Ping measures a round trip to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
