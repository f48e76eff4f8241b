// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// minSecretLen is the shortest HMAC secret accepted for token signing.
const minSecretLen = 32

// TokenConfig holds signing keys and lifetimes for issued tokens.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Validate checks that both secrets and both lifetimes are usable.
func (c TokenConfig) Validate() error {
	if len(c.AccessSecret) < minSecretLen {
		return oops.Code("TOKEN_CONFIG_INVALID").
			With("field", "access_secret").
			Errorf("access secret must be at least %d bytes", minSecretLen)
	}
	if len(c.RefreshSecret) < minSecretLen {
		return oops.Code("TOKEN_CONFIG_INVALID").
			With("field", "refresh_secret").
			Errorf("refresh secret must be at least %d bytes", minSecretLen)
	}
	if c.AccessTTL <= 0 {
		return oops.Code("TOKEN_CONFIG_INVALID").With("field", "access_ttl").Errorf("access TTL must be positive")
	}
	if c.RefreshTTL <= 0 {
		return oops.Code("TOKEN_CONFIG_INVALID").With("field", "refresh_ttl").Errorf("refresh TTL must be positive")
	}
	return nil
}

// TokenPair is the credential material handed to a client at login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues, verifies, rotates and revokes session tokens.
type TokenService struct {
	tokens  TokenRepository
	users   UserRepository
	cfg     TokenConfig
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
}

// TokenServiceOption configures a TokenService.
type TokenServiceOption func(*TokenService)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenLogger sets the logger used by the service.
func WithTokenLogger(logger *slog.Logger) TokenServiceOption {
	return func(s *TokenService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTokenMetrics records issue, refresh and revoke counts on m.
func WithTokenMetrics(m *Metrics) TokenServiceOption {
	return func(s *TokenService) { s.metrics = m }
}

// NewTokenService creates a TokenService.
func NewTokenService(tokens TokenRepository, users UserRepository, cfg TokenConfig, opts ...TokenServiceOption) (*TokenService, error) {
	if tokens == nil {
		return nil, oops.Code("TOKEN_SERVICE_INVALID").Errorf("token repository is required")
	}
	if users == nil {
		return nil, oops.Code("TOKEN_SERVICE_INVALID").Errorf("user repository is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &TokenService{
		tokens: tokens,
		users:  users,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RefreshTTL returns the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration {
	return s.cfg.RefreshTTL
}

// Issue mints a new access/refresh pair for userID and persists it as a new
// session. Existing sessions of the user are left alone.
func (s *TokenService) Issue(ctx context.Context, userID ulid.ULID) (*TokenPair, error) {
	now := s.now()

	access, err := s.sign(s.cfg.AccessSecret, userID, now, s.cfg.AccessTTL)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("operation", "sign access token").Wrap(err)
	}
	refresh, err := s.sign(s.cfg.RefreshSecret, userID, now, s.cfg.RefreshTTL)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("operation", "sign refresh token").Wrap(err)
	}

	token, err := NewToken(userID, HashToken(access), HashToken(refresh), now)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("operation", "build token").Wrap(err)
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").
			With("operation", "persist token").
			With("user_id", userID.String()).
			Wrap(err)
	}

	s.metrics.incIssued()
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess resolves an access token to its owning user. Any token that
// is malformed, unknown, expired, or orphaned fails with invalid_token.
func (s *TokenService) VerifyAccess(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, errInvalidToken()
	}

	subject, err := s.parse(s.cfg.AccessSecret, accessToken)
	if err != nil {
		s.logger.DebugContext(ctx, "access token rejected", "reason", "parse", "error", err)
		return nil, errInvalidToken()
	}

	token, err := s.tokens.GetByAccessHash(ctx, HashToken(accessToken))
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidToken()
	}
	if err != nil {
		return nil, oops.Code("TOKEN_VERIFY_FAILED").With("operation", "get token by access hash").Wrap(err)
	}
	if token.UserID != subject {
		s.logger.WarnContext(ctx, "access token subject mismatch", "token_id", token.ID.String())
		return nil, errInvalidToken()
	}
	if token.AccessExpiredAt(s.now(), s.cfg.AccessTTL) {
		return nil, errInvalidToken()
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidToken()
	}
	if err != nil {
		return nil, oops.Code("TOKEN_VERIFY_FAILED").
			With("operation", "get user by id").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return user, nil
}

// Refresh mints a new access token for the session holding refreshToken and
// rotates it into the row. The refresh token itself stays valid until its
// own lifetime, measured from session creation, passes.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errInvalidToken()
	}

	subject, err := s.parse(s.cfg.RefreshSecret, refreshToken)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh token rejected", "reason", "parse", "error", err)
		return "", errInvalidToken()
	}

	token, err := s.tokens.GetByRefreshHash(ctx, HashToken(refreshToken))
	if errors.Is(err, ErrNotFound) {
		return "", errInvalidToken()
	}
	if err != nil {
		return "", oops.Code("TOKEN_REFRESH_FAILED").With("operation", "get token by refresh hash").Wrap(err)
	}
	if token.UserID != subject {
		s.logger.WarnContext(ctx, "refresh token subject mismatch", "token_id", token.ID.String())
		return "", errInvalidToken()
	}

	now := s.now()
	if token.RefreshExpiredAt(now, s.cfg.RefreshTTL) {
		return "", errInvalidToken()
	}

	access, err := s.sign(s.cfg.AccessSecret, token.UserID, now, s.cfg.AccessTTL)
	if err != nil {
		return "", oops.Code("TOKEN_REFRESH_FAILED").With("operation", "sign access token").Wrap(err)
	}

	token.RotateAccess(HashToken(access), now)
	err = s.tokens.UpdateAccess(ctx, token)
	if errors.Is(err, ErrNotFound) {
		// Revoked between lookup and rotation.
		return "", errInvalidToken()
	}
	if err != nil {
		return "", oops.Code("TOKEN_REFRESH_FAILED").
			With("operation", "rotate access token").
			With("token_id", token.ID.String()).
			Wrap(err)
	}

	s.metrics.incRefreshed()
	return access, nil
}

// Revoke ends the session holding accessToken. Unknown or empty tokens are
// a no-op.
func (s *TokenService) Revoke(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	deleted, err := s.tokens.DeleteByAccessHash(ctx, HashToken(accessToken))
	if err != nil {
		return oops.Code("TOKEN_REVOKE_FAILED").With("operation", "delete token by access hash").Wrap(err)
	}
	if deleted {
		s.metrics.incRevoked()
	}
	return nil
}

// PruneExpired deletes sessions whose refresh lifetime has passed and
// returns how many were removed.
func (s *TokenService) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.RefreshTTL)
	n, err := s.tokens.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, oops.Code("TOKEN_PRUNE_FAILED").With("cutoff", cutoff).Wrap(err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "pruned expired sessions", "count", n)
	}
	return n, nil
}

func (s *TokenService) sign(secret []byte, userID ulid.ULID, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        ulid.Make().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", oops.Wrap(err)
	}
	return signed, nil
}

// parse checks signature and expiry and returns the token subject.
func (s *TokenService) parse(secret []byte, raw string) (ulid.ULID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return ulid.ULID{}, oops.Wrap(err)
	}

	subject, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, oops.With("subject", claims.Subject).Wrap(err)
	}
	return subject, nil
}

func errInvalidToken() error {
	return errPublic(CodeInvalidToken, "invalid token")
}
