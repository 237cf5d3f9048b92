// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
)

// SessionTokenBytes is the entropy of a session token. 32 bytes is
// well past the 128-bit floor for negligible collision probability.
const SessionTokenBytes = 32

// TokenGenerator produces opaque session tokens. Generate returns the
// plaintext token handed to the client and the hash stored at rest.
type TokenGenerator interface {
	Generate() (token, hash string, err error)
}

// RandomTokenGenerator implements TokenGenerator with crypto/rand.
// It is stateless; each call draws fresh entropy.
type RandomTokenGenerator struct{}

// NewRandomTokenGenerator creates a new RandomTokenGenerator.
func NewRandomTokenGenerator() *RandomTokenGenerator {
	return &RandomTokenGenerator{}
}

// Generate creates a secure random token and its storage hash.
func (RandomTokenGenerator) Generate() (token, hash string, err error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(buf)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the hex-encoded SHA-256 hash of a session
// token. Only the hash is persisted, so a leaked users table does not
// leak usable session credentials.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken reports whether the plaintext token matches the
// stored hash, in constant time.
func VerifySessionToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
