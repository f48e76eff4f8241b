// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token is one login session: an access/refresh pair owned by a user.
// Only digests of the token values are stored.
type Token struct {
	ID             ulid.ULID
	UserID         ulid.ULID
	AccessHash     string
	RefreshHash    string
	AccessIssuedAt time.Time
	CreatedAt      time.Time
}

// NewToken creates a validated Token for a pair issued at issuedAt.
func NewToken(userID ulid.ULID, accessHash, refreshHash string, issuedAt time.Time) (*Token, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if accessHash == "" || refreshHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hashes cannot be empty")
	}
	if issuedAt.IsZero() {
		return nil, oops.Code("TOKEN_INVALID_TIME").Errorf("issue time cannot be zero")
	}

	issuedAt = issuedAt.UTC()
	return &Token{
		ID:             ulid.Make(),
		UserID:         userID,
		AccessHash:     accessHash,
		RefreshHash:    refreshHash,
		AccessIssuedAt: issuedAt,
		CreatedAt:      issuedAt,
	}, nil
}

// RotateAccess swaps in a new access digest and restarts its lifetime.
func (t *Token) RotateAccess(accessHash string, at time.Time) {
	t.AccessHash = accessHash
	t.AccessIssuedAt = at.UTC()
}

// AccessExpiredAt reports whether the access token is past ttl at the given time.
func (t *Token) AccessExpiredAt(at time.Time, ttl time.Duration) bool {
	return at.Sub(t.AccessIssuedAt) > ttl
}

// RefreshExpiredAt reports whether the refresh token is past ttl at the given time.
func (t *Token) RefreshExpiredAt(at time.Time, ttl time.Duration) bool {
	return at.Sub(t.CreatedAt) > ttl
}

// HashToken computes the SHA256 digest used to store and look up token values.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenRepository manages token persistence. Lookups take digests, never
// raw token values.
type TokenRepository interface {
	// Create stores a new token row.
	Create(ctx context.Context, token *Token) error

	// GetByAccessHash retrieves the row holding the access digest.
	GetByAccessHash(ctx context.Context, accessHash string) (*Token, error)

	// GetByRefreshHash retrieves the row holding the refresh digest.
	GetByRefreshHash(ctx context.Context, refreshHash string) (*Token, error)

	// UpdateAccess persists a rotated access digest and issue time.
	UpdateAccess(ctx context.Context, token *Token) error

	// DeleteByAccessHash removes the row holding the access digest and
	// reports whether one existed. Deleting a missing row is not an error.
	DeleteByAccessHash(ctx context.Context, accessHash string) (bool, error)

	// DeleteCreatedBefore removes rows created before cutoff and returns
	// the number removed.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
