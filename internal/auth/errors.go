// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested user or session does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when creating a user with an email that is
// already registered.
var ErrAlreadyExists = errors.New("already exists")

// ErrValidation is returned when caller-supplied input fails validation,
// such as a malformed email or an empty password. Callers can branch on
// it with errors.Is to report the failure as the caller's fault.
var ErrValidation = errors.New("validation failed")

// ErrInvalidAttribute is returned when an update names no recognized
// mutable attribute or names one inconsistently. Seeing it at runtime
// indicates a bug in the calling code, not bad user input.
var ErrInvalidAttribute = errors.New("invalid attribute")
