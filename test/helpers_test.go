//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/MrEthical07/ticketAuth/password"
	"github.com/MrEthical07/ticketAuth/repository/memory"
	"github.com/MrEthical07/ticketAuth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	integrationMobile   = "13800138000"
	integrationPassword = "123456"
	integrationSalt     = "1a2b3c4d"
)

func newIntegrationStore(t *testing.T) (*session.Store, *miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, session.DefaultPrefix)

	return store, mr, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// newIntegrationEngine builds an engine over rdb with one seeded user.
func newIntegrationEngine(t *testing.T, rdb redis.UniversalClient, users *memory.Users, mutate func(*ticketAuth.Config)) *ticketAuth.Engine {
	t.Helper()

	cfg := ticketAuth.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := ticketAuth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserRepository(users).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() {
		_ = engine.Close(context.Background())
	})
	return engine
}

func seedUsers(t *testing.T) *memory.Users {
	t.Helper()

	hash, err := password.MD5Chain{}.Hash(integrationPassword, integrationSalt)
	if err != nil {
		t.Fatalf("hash seed user: %v", err)
	}

	users := memory.NewUsers()
	users.Put(ticketAuth.User{
		ID:           integrationMobile,
		Nickname:     "integration",
		PasswordHash: hash,
		Salt:         integrationSalt,
		Head:         "https://cdn.example.com/h/1.png",
		RegisterDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	return users
}

func validCredentials() ticketAuth.Credentials {
	return ticketAuth.Credentials{
		Identifier: integrationMobile,
		Password:   password.MD5Chain{}.FormHash(integrationPassword),
	}
}

func makeSnapshot(userID string) *session.Snapshot {
	return &session.Snapshot{
		UserID:        userID,
		Nickname:      "nick-" + userID,
		Head:          "",
		RegisterDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IssuedAt:      time.Now().UTC().Truncate(time.Millisecond),
		SchemaVersion: session.CurrentSchemaVersion,
	}
}
