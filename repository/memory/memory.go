// Package memory is an in-process UserRepository for tests, examples and the
// load test harness.
package memory

import (
	"context"
	"sync"
	"time"

	ticketAuth "github.com/MrEthical07/ticketAuth"
)

// Users is a map-backed user store safe for concurrent use.
type Users struct {
	mu    sync.RWMutex
	users map[string]ticketAuth.User
}

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{users: make(map[string]ticketAuth.User)}
}

// FindByIdentifier implements ticketAuth.UserRepository.
func (u *Users) FindByIdentifier(ctx context.Context, identifier string) (ticketAuth.User, error) {
	if err := ctx.Err(); err != nil {
		return ticketAuth.User{}, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.users[identifier]
	if !ok {
		return ticketAuth.User{}, ticketAuth.ErrUserNotFound
	}
	return user, nil
}

// CreateUser implements ticketAuth.UserProvisioner.
func (u *Users) CreateUser(ctx context.Context, user ticketAuth.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.users[user.ID]; ok {
		return ticketAuth.ErrUserExists
	}
	u.users[user.ID] = user
	return nil
}

// RecordLogin implements ticketAuth.LoginRecorder.
func (u *Users) RecordLogin(_ context.Context, identifier string, at time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.users[identifier]
	if !ok {
		return ticketAuth.ErrUserNotFound
	}
	user.LastLoginDate = at.UTC()
	user.LoginCount++
	u.users[identifier] = user
	return nil
}

// Put inserts or replaces user.
func (u *Users) Put(user ticketAuth.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[user.ID] = user
}

// Len returns the number of stored users.
func (u *Users) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.users)
}
