// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestRandomTokenGenerator_Generate(t *testing.T) {
	gen := auth.NewRandomTokenGenerator()

	token, hash, err := gen.Generate()
	require.NoError(t, err)

	// 32 random bytes, hex encoded
	assert.Len(t, token, auth.SessionTokenBytes*2)
	_, err = hex.DecodeString(token)
	require.NoError(t, err)

	assert.Equal(t, auth.HashSessionToken(token), hash)
	assert.NotEqual(t, token, hash)
}

func TestRandomTokenGenerator_Unique(t *testing.T) {
	gen := auth.NewRandomTokenGenerator()

	seen := make(map[string]bool)
	for range 100 {
		token, _, err := gen.Generate()
		require.NoError(t, err)
		assert.False(t, seen[token], "token repeated")
		seen[token] = true
	}
}

func TestVerifySessionToken(t *testing.T) {
	gen := auth.NewRandomTokenGenerator()

	token, hash, err := gen.Generate()
	require.NoError(t, err)

	assert.True(t, auth.VerifySessionToken(token, hash))
	assert.False(t, auth.VerifySessionToken("stale-token", hash))
	assert.False(t, auth.VerifySessionToken("", hash))
}
