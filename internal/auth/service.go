// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is used when a user doesn't exist so that password
// verification still runs and response time stays consistent. It is a
// fake hash that can never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing equalization, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates registration, credential validation, and the
// session lifecycle. A user holds at most one active session; each
// login overwrites the previous token.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenGenerator
	logger *slog.Logger
}

// NewService creates a Service logging to the default slog logger.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenGenerator) (*Service, error) {
	return NewServiceWithLogger(users, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, tokens TokenGenerator, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token generator is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}, nil
}

// Register creates a new user from an email and plaintext password.
// Returns ErrAlreadyExists (wrapped) if the email is taken and
// ErrValidation (wrapped) for a malformed email or empty password. The
// plaintext never reaches storage or logs.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, oops.Code("AUTH_VALIDATION").Wrapf(ErrValidation, "password cannot be empty")
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, oops.Code("USER_ALREADY_EXISTS").
			With("email", email).
			Wrap(ErrAlreadyExists)
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Two concurrent registrations can both pass the lookup; the
		// unique constraint decides the winner.
		if errors.Is(err, ErrAlreadyExists) {
			return nil, oops.Code("USER_ALREADY_EXISTS").
				With("email", email).
				Wrap(ErrAlreadyExists)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"email", user.Email,
	)

	return user, nil
}

// ValidLogin reports whether the credentials identify a user. An
// unknown email is a normal false result, not an error.
func (s *Service) ValidLogin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.UserFromCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UserFromCredentials resolves the user identified by an email and
// plaintext password. An unknown email and a wrong password both
// yield the same wrapped ErrNotFound, so callers cannot enumerate
// registered addresses. Verification runs against a dummy hash for
// unknown users to keep response time consistent.
func (s *Service) UserFromCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	exists := false
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(err)
		}
	} else {
		targetHash = user.PasswordHash
		exists = true
	}

	valid := s.hasher.Verify(password, targetHash)
	if !exists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrNotFound)
	}

	// Transparent rehash of legacy bcrypt hashes. The login succeeds
	// whether or not the rewrite lands.
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if updErr := s.users.UpdatePassword(ctx, user.ID, newHash); updErr != nil {
				s.logger.WarnContext(ctx, "password hash upgrade failed",
					"user_id", user.ID.String(),
					"error", updErr,
				)
			}
		}
	}

	return user, nil
}

// CreateSession issues a fresh session token for the user with the
// given email and persists its hash, overwriting any prior token.
// Returns a wrapped ErrNotFound if no such user exists.
func (s *Service) CreateSession(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
		}
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, hash, err := s.tokens.Generate()
	if err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	if err := s.users.Update(ctx, user.ID, UserUpdate{SessionToken: &hash}); err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "session created", "user_id", user.ID.String())

	return token, nil
}

// DestroySession clears the user's session token. Destroying an
// already-absent session, or a session of an unknown user, is not an
// error.
func (s *Service) DestroySession(ctx context.Context, userID ulid.ULID) error {
	err := s.users.Update(ctx, userID, UserUpdate{ClearSessionToken: true})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("SESSION_DESTROY_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "session destroyed", "user_id", userID.String())

	return nil
}

// UserFromSession resolves the user owning a session token. An empty
// or unknown token yields a wrapped ErrNotFound; unknown tokens and
// unknown users are indistinguishable to the caller.
func (s *Service) UserFromSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID").Wrap(ErrNotFound)
	}

	user, err := s.users.GetBySessionToken(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrNotFound)
		}
		return nil, oops.Code("SESSION_LOOKUP_FAILED").
			With("operation", "get user by session token").
			Wrap(err)
	}

	return user, nil
}
