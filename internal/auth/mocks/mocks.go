// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/authcore/internal/auth"
)

type cleanupT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserRepository is a mock implementation of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository that asserts its
// expectations when the test ends.
func NewMockUserRepository(t cleanupT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create records the call and returns the configured error.
func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID records the call and returns the configured user and error.
func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

// GetByEmail records the call and returns the configured user and error.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

// Update records the call and returns the configured error.
func (m *MockUserRepository) Update(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockTokenRepository is a mock implementation of auth.TokenRepository.
type MockTokenRepository struct {
	mock.Mock
}

// NewMockTokenRepository creates a MockTokenRepository that asserts its
// expectations when the test ends.
func NewMockTokenRepository(t cleanupT) *MockTokenRepository {
	m := &MockTokenRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create records the call and returns the configured error.
func (m *MockTokenRepository) Create(ctx context.Context, token *auth.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// GetByAccessHash records the call and returns the configured token and error.
func (m *MockTokenRepository) GetByAccessHash(ctx context.Context, accessHash string) (*auth.Token, error) {
	args := m.Called(ctx, accessHash)
	return tokenArg(args, 0), args.Error(1)
}

// GetByRefreshHash records the call and returns the configured token and error.
func (m *MockTokenRepository) GetByRefreshHash(ctx context.Context, refreshHash string) (*auth.Token, error) {
	args := m.Called(ctx, refreshHash)
	return tokenArg(args, 0), args.Error(1)
}

// UpdateAccess records the call and returns the configured error.
func (m *MockTokenRepository) UpdateAccess(ctx context.Context, token *auth.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// DeleteByAccessHash records the call and returns the configured result and error.
func (m *MockTokenRepository) DeleteByAccessHash(ctx context.Context, accessHash string) (bool, error) {
	args := m.Called(ctx, accessHash)
	return args.Bool(0), args.Error(1)
}

// DeleteCreatedBefore records the call and returns the configured count and error.
func (m *MockTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its
// expectations when the test ends.
func NewMockPasswordHasher(t cleanupT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash records the call and returns the configured hash and error.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify records the call and returns the configured result and error.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockDelayer is a mock implementation of auth.Delayer.
type MockDelayer struct {
	mock.Mock
}

// NewMockDelayer creates a MockDelayer that asserts its expectations when
// the test ends.
func NewMockDelayer(t cleanupT) *MockDelayer {
	m := &MockDelayer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Delay records the call and returns the configured duration.
func (m *MockDelayer) Delay(ctx context.Context) time.Duration {
	args := m.Called(ctx)
	return args.Get(0).(time.Duration)
}

func userArg(args mock.Arguments, i int) *auth.User {
	if u, ok := args.Get(i).(*auth.User); ok {
		return u
	}
	return nil
}

func tokenArg(args mock.Arguments, i int) *auth.Token {
	if tok, ok := args.Get(i).(*auth.Token); ok {
		return tok
	}
	return nil
}

var (
	_ auth.UserRepository  = (*MockUserRepository)(nil)
	_ auth.TokenRepository = (*MockTokenRepository)(nil)
	_ auth.PasswordHasher  = (*MockPasswordHasher)(nil)
	_ auth.Delayer         = (*MockDelayer)(nil)
)
