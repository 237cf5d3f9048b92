// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces PHC format", func(t *testing.T) {
		encoded, err := hasher.Hash("secret")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))
		assert.Len(t, strings.Split(encoded, "$"), 6)
	})

	t.Run("salts every hash", func(t *testing.T) {
		first, err := hasher.Hash("secret")
		require.NoError(t, err)
		second, err := hasher.Hash("secret")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.True(t, hasher.Verify("secret", first))
		assert.True(t, hasher.Verify("secret", second))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	encoded, err := hasher.Hash("secret")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		encoded  string
		want     bool
	}{
		{"correct password", "secret", encoded, true},
		{"wrong password", "wrong", encoded, false},
		{"empty password", "", encoded, false},
		{"empty hash", "secret", "", false},
		{"garbage hash", "secret", "not-a-hash", false},
		{"wrong algorithm", "secret", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", false},
		{"truncated hash", "secret", "$argon2id$v=19$m=65536", false},
		{"bad base64 salt", "secret", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasher.Verify(tt.password, tt.encoded))
		})
	}
}

func TestArgon2idHasher_BcryptCompat(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, hasher.Verify("secret", string(legacy)))
	assert.False(t, hasher.Verify("wrong", string(legacy)))
}

func TestArgon2idHasher_NeedsUpgrade(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	encoded, err := hasher.Hash("secret")
	require.NoError(t, err)

	assert.False(t, hasher.NeedsUpgrade(encoded))
	assert.True(t, hasher.NeedsUpgrade("$2a$10$N9qo8uLOickgx2ZMRZoMye"))
	assert.True(t, hasher.NeedsUpgrade(""))
}
