// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memstore provides in-memory implementations of the auth
// repositories for tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
)

// Store holds users and tokens in memory. Deleting a user is not exposed,
// so the token cascade never needs to run here.
type Store struct {
	mu      sync.RWMutex
	users   map[ulid.ULID]auth.User
	byEmail map[string]ulid.ULID
	tokens  map[ulid.ULID]auth.Token
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[ulid.ULID]auth.User),
		byEmail: make(map[string]ulid.ULID),
		tokens:  make(map[ulid.ULID]auth.Token),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Tokens returns the token repository view of the store.
func (s *Store) Tokens() *TokenRepository { return &TokenRepository{s: s} }

// UserRepository implements auth.UserRepository over a Store.
type UserRepository struct{ s *Store }

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.byEmail[user.Email]; taken {
		return oops.Code("USER_EMAIL_TAKEN").With("email", user.Email).Wrap(auth.ErrAlreadyExists)
	}
	if _, taken := r.s.users[user.ID]; taken {
		return oops.Code("USER_ID_TAKEN").With("id", user.ID.String()).Wrap(auth.ErrAlreadyExists)
	}

	r.s.users[user.ID] = copyUser(user)
	r.s.byEmail[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	out := copyUser(&u)
	return &out, nil
}

// GetByEmail retrieves a user by exact email match.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	u := r.s.users[id]
	out := copyUser(&u)
	return &out, nil
}

// Update overwrites the mutable fields of an existing user.
func (r *UserRepository) Update(_ context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", user.ID.String()).Wrap(auth.ErrNotFound)
	}

	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.PasswordHash = user.PasswordHash
	existing.ResetCode = copyString(user.ResetCode)
	existing.UpdatedAt = user.UpdatedAt
	r.s.users[user.ID] = existing
	return nil
}

// TokenRepository implements auth.TokenRepository over a Store.
type TokenRepository struct{ s *Store }

// Create stores a new token row.
func (r *TokenRepository) Create(_ context.Context, token *auth.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[token.UserID]; !ok {
		return oops.Code("TOKEN_USER_MISSING").With("user_id", token.UserID.String()).Wrap(auth.ErrNotFound)
	}
	for _, t := range r.s.tokens {
		if t.AccessHash == token.AccessHash || t.RefreshHash == token.RefreshHash {
			return oops.Code("TOKEN_HASH_TAKEN").Wrap(auth.ErrAlreadyExists)
		}
	}
	r.s.tokens[token.ID] = *token
	return nil
}

// GetByAccessHash retrieves the row holding the access digest.
func (r *TokenRepository) GetByAccessHash(_ context.Context, accessHash string) (*auth.Token, error) {
	return r.find(func(t auth.Token) bool { return t.AccessHash == accessHash })
}

// GetByRefreshHash retrieves the row holding the refresh digest.
func (r *TokenRepository) GetByRefreshHash(_ context.Context, refreshHash string) (*auth.Token, error) {
	return r.find(func(t auth.Token) bool { return t.RefreshHash == refreshHash })
}

// UpdateAccess persists a rotated access digest and issue time.
func (r *TokenRepository) UpdateAccess(_ context.Context, token *auth.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tokens[token.ID]
	if !ok {
		return oops.Code("TOKEN_NOT_FOUND").With("id", token.ID.String()).Wrap(auth.ErrNotFound)
	}
	existing.AccessHash = token.AccessHash
	existing.AccessIssuedAt = token.AccessIssuedAt
	r.s.tokens[token.ID] = existing
	return nil
}

// DeleteByAccessHash removes the row holding the access digest, if any.
func (r *TokenRepository) DeleteByAccessHash(_ context.Context, accessHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := false
	for id, t := range r.s.tokens {
		if t.AccessHash == accessHash {
			delete(r.s.tokens, id)
			deleted = true
		}
	}
	return deleted, nil
}

// DeleteCreatedBefore removes rows created before cutoff.
func (r *TokenRepository) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.tokens {
		if t.CreatedAt.Before(cutoff) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *TokenRepository) find(match func(auth.Token) bool) (*auth.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if match(t) {
			out := t
			return &out, nil
		}
	}
	return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func copyUser(u *auth.User) auth.User {
	out := *u
	out.ResetCode = copyString(u.ResetCode)
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var (
	_ auth.UserRepository  = (*UserRepository)(nil)
	_ auth.TokenRepository = (*TokenRepository)(nil)
)
