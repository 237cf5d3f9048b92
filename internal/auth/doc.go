// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth provides the authentication core for Gatehouse.
//
// # Domain Types
//
// User is created through NewUser, which validates the email and
// assigns the ID. Direct struct initialization bypasses validation.
// Sessions are not a separate entity: a user's SessionToken field
// holds the hash of the single active session token, so sessions are
// 1:1 with users and each login overwrites the previous one.
//
// # Services
//
// Service coordinates registration, login validation, and the session
// lifecycle on top of three narrow dependencies: UserRepository,
// PasswordHasher, and TokenGenerator. Lookup misses surface as the
// ErrNotFound sentinel rather than distinct error shapes, so a missing
// user and an invalid session token are indistinguishable to callers.
package auth
