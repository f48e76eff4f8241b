// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User is a registered account.
type User struct {
	ID           ulid.ULID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	// ResetCode is set between a reset request and a successful reset.
	ResetCode *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a User with a fresh ID and timestamps. The password must
// already be hashed.
func NewUser(firstName, lastName, email, passwordHash string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &User{
		ID:           ulid.Make(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Touch records a modification. Callers touch the user before Update.
func (u *User) Touch() {
	u.UpdatedAt = time.Now().UTC()
}

// UserInfo is the public projection of a User.
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Info returns the fields safe to show the account owner.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. A duplicate email wraps ErrAlreadyExists.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Missing users wrap ErrNotFound.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by exact email match.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update writes names, password hash and reset code in one statement.
	Update(ctx context.Context, user *User) error
}
