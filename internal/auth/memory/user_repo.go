// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package memory provides an in-memory auth.UserRepository for tests
// and single-process development runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// UserRepository implements auth.UserRepository with a mutex-guarded
// map. Each operation is atomic, matching the per-operation
// consistency the service expects from the persistence layer.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID // lowercased email → id
	byToken map[string]ulid.ULID // session token hash → id
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
		byToken: make(map[string]ulid.ULID),
	}
}

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return oops.Code("USER_ALREADY_EXISTS").
			With("email", user.Email).
			Wrap(auth.ErrAlreadyExists)
	}

	stored := cloneUser(user)
	r.byID[stored.ID] = stored
	r.byEmail[key] = stored.ID
	if stored.SessionToken != nil {
		r.byToken[*stored.SessionToken] = stored.ID
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return cloneUser(user), nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	return cloneUser(r.byID[id]), nil
}

// GetBySessionToken retrieves the user owning the given session token hash.
func (r *UserRepository) GetBySessionToken(_ context.Context, tokenHash string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[tokenHash]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return cloneUser(r.byID[id]), nil
}

// Update applies the named attribute changes atomically.
func (r *UserRepository) Update(_ context.Context, id ulid.ULID, update auth.UserUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}

	if update.SessionToken != nil || update.ClearSessionToken {
		if user.SessionToken != nil {
			delete(r.byToken, *user.SessionToken)
		}
		if update.SessionToken != nil {
			token := *update.SessionToken
			user.SessionToken = &token
			r.byToken[token] = id
		} else {
			user.SessionToken = nil
		}
	}

	if update.ResetToken != nil {
		token := *update.ResetToken
		user.ResetToken = &token
	} else if update.ClearResetToken {
		user.ResetToken = nil
	}

	user.UpdatedAt = time.Now()
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	if u.SessionToken != nil {
		token := *u.SessionToken
		c.SessionToken = &token
	}
	if u.ResetToken != nil {
		token := *u.ResetToken
		c.ResetToken = &token
	}
	return &c
}
