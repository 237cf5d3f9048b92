// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mocks provides hand-written testify mocks for the auth
// interfaces, shaped like mockery output.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// MockUserRepository is a mock implementation of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a new mock bound to the test lifecycle.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	ret := m.Called(ctx, user)
	return ret.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	ret := m.Called(ctx, id)
	var user *auth.User
	if ret.Get(0) != nil {
		user = ret.Get(0).(*auth.User)
	}
	return user, ret.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	ret := m.Called(ctx, email)
	var user *auth.User
	if ret.Get(0) != nil {
		user = ret.Get(0).(*auth.User)
	}
	return user, ret.Error(1)
}

func (m *MockUserRepository) GetBySessionToken(ctx context.Context, tokenHash string) (*auth.User, error) {
	ret := m.Called(ctx, tokenHash)
	var user *auth.User
	if ret.Get(0) != nil {
		user = ret.Get(0).(*auth.User)
	}
	return user, ret.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id ulid.ULID, update auth.UserUpdate) error {
	ret := m.Called(ctx, id, update)
	return ret.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	ret := m.Called(ctx, id, passwordHash)
	return ret.Error(0)
}

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a new mock bound to the test lifecycle.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

func (m *MockPasswordHasher) Verify(password, encoded string) bool {
	ret := m.Called(password, encoded)
	return ret.Bool(0)
}

func (m *MockPasswordHasher) NeedsUpgrade(encoded string) bool {
	ret := m.Called(encoded)
	return ret.Bool(0)
}

// MockTokenGenerator is a mock implementation of auth.TokenGenerator.
type MockTokenGenerator struct {
	mock.Mock
}

// NewMockTokenGenerator creates a new mock bound to the test lifecycle.
func NewMockTokenGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenGenerator {
	m := &MockTokenGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenGenerator) Generate() (string, string, error) {
	ret := m.Called()
	return ret.String(0), ret.String(1), ret.Error(2)
}
