// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/pkg/errutil"
)

func TestNewToken(t *testing.T) {
	userID := ulid.Make()
	issued := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	t.Run("valid token", func(t *testing.T) {
		tok, err := auth.NewToken(userID, "access-digest", "refresh-digest", issued)
		require.NoError(t, err)
		assert.NotEqual(t, ulid.ULID{}, tok.ID)
		assert.Equal(t, userID, tok.UserID)
		assert.Equal(t, "access-digest", tok.AccessHash)
		assert.Equal(t, "refresh-digest", tok.RefreshHash)
		assert.True(t, tok.CreatedAt.Equal(issued))
		assert.Equal(t, tok.CreatedAt, tok.AccessIssuedAt)
		assert.Equal(t, time.UTC, tok.CreatedAt.Location())
	})

	tests := []struct {
		name     string
		userID   ulid.ULID
		access   string
		refresh  string
		issuedAt time.Time
		code     string
	}{
		{"zero user", ulid.ULID{}, "a", "r", issued, "TOKEN_INVALID_USER"},
		{"empty access hash", userID, "", "r", issued, "TOKEN_INVALID_HASH"},
		{"empty refresh hash", userID, "a", "", issued, "TOKEN_INVALID_HASH"},
		{"zero issue time", userID, "a", "r", time.Time{}, "TOKEN_INVALID_TIME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := auth.NewToken(tt.userID, tt.access, tt.refresh, tt.issuedAt)
			require.Error(t, err)
			assert.Nil(t, tok)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestToken_Expiry(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tok, err := auth.NewToken(ulid.Make(), "a", "r", created)
	require.NoError(t, err)

	const ttl = 15 * time.Minute

	assert.False(t, tok.AccessExpiredAt(created.Add(ttl), ttl), "expiry is exclusive of the boundary")
	assert.True(t, tok.AccessExpiredAt(created.Add(ttl+time.Second), ttl))

	rotated := created.Add(10 * time.Minute)
	tok.RotateAccess("a2", rotated)
	assert.Equal(t, "a2", tok.AccessHash)
	assert.False(t, tok.AccessExpiredAt(created.Add(ttl+time.Second), ttl), "rotation restarts the access lifetime")
	assert.True(t, tok.AccessExpiredAt(rotated.Add(ttl+time.Second), ttl))

	assert.False(t, tok.RefreshExpiredAt(created.Add(time.Hour), time.Hour))
	assert.True(t, tok.RefreshExpiredAt(rotated.Add(time.Hour), time.Hour), "rotation does not extend the refresh lifetime")
}

func TestHashToken(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", auth.HashToken("abc"))
	assert.Len(t, auth.HashToken(""), 64)
	assert.NotEqual(t, auth.HashToken("a"), auth.HashToken("b"))
}
