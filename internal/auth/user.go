// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// emailRegex is a deliberately loose check: one '@' with non-empty
// local part and domain. Anything stricter rejects valid addresses.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// User represents a registered principal.
//
// SessionToken holds the SHA-256 hash of the active session token, or
// nil when no session exists. The plaintext token is only ever held by
// the client. ResetToken is storable but has no workflow attached.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	SessionToken *string
	ResetToken   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User with a freshly assigned ID.
func NewUser(email, passwordHash string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_VALIDATION").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasSession reports whether the user currently has an active session.
func (u *User) HasSession() bool {
	return u.SessionToken != nil && *u.SessionToken != ""
}

// ValidateEmail validates an email address for registration and lookup.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_VALIDATION").Wrapf(ErrValidation, "email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_VALIDATION").
			With("email", email).
			Wrapf(ErrValidation, "email is not a valid address")
	}
	return nil
}

// UserUpdate enumerates the mutable user attributes. A nil pointer
// leaves the attribute unchanged; the Clear flags set it to NULL.
// All named changes are applied atomically or not at all.
type UserUpdate struct {
	SessionToken      *string
	ClearSessionToken bool
	ResetToken        *string
	ClearResetToken   bool
}

// Validate rejects updates that name no attribute or both set and
// clear the same one.
func (u UserUpdate) Validate() error {
	if u.SessionToken == nil && !u.ClearSessionToken && u.ResetToken == nil && !u.ClearResetToken {
		return oops.Code("STORE_INVALID_ATTRIBUTE").
			Wrap(ErrInvalidAttribute)
	}
	if u.SessionToken != nil && u.ClearSessionToken {
		return oops.Code("STORE_INVALID_ATTRIBUTE").
			With("attribute", "session_token").
			Wrap(ErrInvalidAttribute)
	}
	if u.ResetToken != nil && u.ClearResetToken {
		return oops.Code("STORE_INVALID_ATTRIBUTE").
			With("attribute", "reset_token").
			Wrap(ErrInvalidAttribute)
	}
	return nil
}

// UserRepository manages user persistence.
//
// Implementations wrap ErrNotFound when a lookup matches nothing and
// ErrAlreadyExists when a create collides on email, so callers can
// branch with errors.Is.
type UserRepository interface {
	// Create stores a new user. The user must carry an assigned ID.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetBySessionToken retrieves the user owning the given session
	// token hash.
	GetBySessionToken(ctx context.Context, tokenHash string) (*User, error)

	// Update applies the named attribute changes to the user,
	// all-or-nothing.
	Update(ctx context.Context, id ulid.ULID, update UserUpdate) error

	// UpdatePassword replaces the stored password hash. Separate from
	// Update so the enumerated attribute set stays closed.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}
