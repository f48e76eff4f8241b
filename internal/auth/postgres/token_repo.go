// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/store"
)

const tokenColumns = `id, user_id, access_hash, refresh_hash, access_issued_at, created_at`

// TokenRepository implements auth.TokenRepository using PostgreSQL.
type TokenRepository struct {
	db store.Querier
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db store.Querier) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a new token row. The owning user must exist.
func (r *TokenRepository) Create(ctx context.Context, token *auth.Token) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		token.ID.String(),
		token.UserID.String(),
		token.AccessHash,
		token.RefreshHash,
		token.AccessIssuedAt,
		token.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return oops.Code("TOKEN_USER_MISSING").
			With("user_id", token.UserID.String()).
			Wrap(auth.ErrNotFound)
	case isUniqueViolation(err):
		return oops.Code("TOKEN_HASH_TAKEN").Wrap(auth.ErrAlreadyExists)
	default:
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert token").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
}

// GetByAccessHash retrieves the row holding accessHash.
func (r *TokenRepository) GetByAccessHash(ctx context.Context, accessHash string) (*auth.Token, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE access_hash = $1`, accessHash)
	return r.get(row, "get token by access hash")
}

// GetByRefreshHash retrieves the row holding refreshHash.
func (r *TokenRepository) GetByRefreshHash(ctx context.Context, refreshHash string) (*auth.Token, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE refresh_hash = $1`, refreshHash)
	return r.get(row, "get token by refresh hash")
}

// UpdateAccess stores a rotated access digest and its issue time.
func (r *TokenRepository) UpdateAccess(ctx context.Context, token *auth.Token) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tokens SET access_hash = $2, access_issued_at = $3 WHERE id = $1
	`, token.ID.String(), token.AccessHash, token.AccessIssuedAt)
	if err != nil {
		return oops.Code("TOKEN_UPDATE_FAILED").
			With("operation", "rotate access hash").
			With("id", token.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("TOKEN_NOT_FOUND").With("id", token.ID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByAccessHash removes the row holding accessHash, if any.
func (r *TokenRepository) DeleteByAccessHash(ctx context.Context, accessHash string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tokens WHERE access_hash = $1`, accessHash)
	if err != nil {
		return false, oops.Code("TOKEN_DELETE_FAILED").With("operation", "delete token by access hash").Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteCreatedBefore removes rows created before cutoff.
func (r *TokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tokens WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete expired tokens").
			With("cutoff", cutoff).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) get(row pgx.Row, operation string) (*auth.Token, error) {
	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").With("operation", operation).Wrap(err)
	}
	return token, nil
}

func scanToken(row pgx.Row) (*auth.Token, error) {
	var (
		token            auth.Token
		idStr, userIDStr string
	)
	if err := row.Scan(
		&idStr,
		&userIDStr,
		&token.AccessHash,
		&token.RefreshHash,
		&token.AccessIssuedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers branch on pgx.ErrNoRows
	}

	var err error
	if token.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse token id").With("id", idStr).Wrap(err)
	}
	if token.UserID, err = ulid.Parse(userIDStr); err != nil {
		return nil, oops.With("operation", "parse token user id").With("user_id", userIDStr).Wrap(err)
	}
	return &token, nil
}
