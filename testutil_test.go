package ticketAuth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/ticketAuth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testMobile = "13000000000"
	testSalt   = "1a2b3c4d"
)

var testHasher = password.MD5Chain{}

type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]User
	lookups atomic.Int64
	findErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]User)}
}

func (f *fakeUsers) FindByIdentifier(_ context.Context, identifier string) (User, error) {
	f.lookups.Add(1)
	if f.findErr != nil {
		return User{}, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[identifier]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; ok {
		return ErrUserExists
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) put(u User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

// seed stores a user whose password is plain under salt.
func (f *fakeUsers) seed(t testing.TB, id, plain, salt string) User {
	t.Helper()
	hash, err := testHasher.Hash(plain, salt)
	if err != nil {
		t.Fatalf("hash seed user: %v", err)
	}
	u := User{ID: id, Nickname: "user-" + id[len(id)-4:], PasswordHash: hash, Salt: salt}
	f.put(u)
	return u
}

var errRepositoryDown = errors.New("connection refused")

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func newTestEngine(t testing.TB, cfg Config, users *fakeUsers) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserRepository(users).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close(context.Background()) })
	return engine, mr
}

func loginCreds(id, plain string) Credentials {
	return Credentials{Identifier: id, Password: testHasher.FormHash(plain)}
}
