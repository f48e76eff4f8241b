// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/pkg/errutil"
)

// Service orchestrates registration, login, session and password flows.
type Service struct {
	users   UserRepository
	tokens  *TokenService
	hasher  PasswordHasher
	delayer Delayer
	logger  *slog.Logger
	metrics *Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithDelayer replaces the anti-enumeration delay.
func WithDelayer(d Delayer) ServiceOption {
	return func(s *Service) { s.delayer = d }
}

// WithMetrics records operation outcomes on m.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewAuthService creates a new Service.
func NewAuthService(users UserRepository, tokens *TokenService, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("users repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token service is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}

	s := &Service{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		delayer: NewRandomDelayer(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger cannot be nil")
	}
	if s.delayer == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("delayer cannot be nil")
	}
	return s, nil
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginResult is returned by a successful login. The refresh token is meant
// for an HttpOnly cookie that lives for RefreshTTL.
type LoginResult struct {
	UserID       ulid.ULID
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

// Register creates an account. An existing email is reported only after
// the anti-enumeration delay.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user *User, err error) {
	defer func() { s.metrics.observe("register", err) }()

	_, err = s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, s.identityFailure(ctx, CodeUserAlreadyExists, "user already exists")
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "get user by email").Wrap(err)
	}

	if err = ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err = ValidateEmail(in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user, err = NewUser(in.FirstName, in.LastName, in.Email, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "build user").Wrap(err)
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, ErrAlreadyExists) {
		// Lost a race with a concurrent registration of the same email.
		return nil, s.identityFailure(ctx, CodeUserAlreadyExists, "user already exists")
	}
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "create user").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user, nil
}

// Login checks credentials and opens a new session. Unknown email and wrong
// password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	defer func() { s.metrics.observe("login", err) }()

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, s.identityFailure(ctx, CodeAccountNotFound, "account not found")
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "get user by email").Wrap(err)
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if !valid {
		return nil, s.identityFailure(ctx, CodeAccountNotFound, "account not found")
	}

	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "issue tokens").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())
	return &LoginResult{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		RefreshTTL:   s.tokens.RefreshTTL(),
	}, nil
}

// Logout revokes the session behind accessToken. Repeating it is harmless.
func (s *Service) Logout(ctx context.Context, accessToken string) (err error) {
	defer func() { s.metrics.observe("logout", err) }()

	if err = s.tokens.Revoke(ctx, accessToken); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "revoke session").Wrap(err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new access token. Every failure,
// including storage errors, is reported as a plain bad_request.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (access string, err error) {
	defer func() { s.metrics.observe("refresh", err) }()

	if refreshToken == "" {
		return "", errPublic(CodeBadRequest, "refresh token missing")
	}

	access, err = s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		if PublicCode(err) == "" {
			errutil.LogErrorContext(ctx, s.logger, "refresh failed", err)
		}
		return "", errPublic(CodeBadRequest, "refresh failed")
	}
	return access, nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID ulid.ULID, oldPassword, newPassword string) (err error) {
	defer func() { s.metrics.observe("change_password", err) }()

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return s.identityFailure(ctx, CodeAccountNotFound, "account not found")
	}
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "get user by id").
			With("user_id", userID.String()).
			Wrap(err)
	}

	valid, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "verify password").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if !valid {
		return errPublic(CodePasswordError, "current password is incorrect")
	}

	if err = ValidatePassword(newPassword); err != nil {
		return err
	}

	if err = s.setPassword(ctx, user, newPassword, false); err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("user_id", userID.String()).Wrap(err)
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", userID.String())
	return nil
}

// AskResetPassword stores a fresh reset code on the account and returns it
// for out-of-band delivery.
func (s *Service) AskResetPassword(ctx context.Context, email string) (code string, err error) {
	defer func() { s.metrics.observe("ask_reset_password", err) }()

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", s.identityFailure(ctx, CodeAccountNotFound, "account not found")
	}
	if err != nil {
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").With("operation", "get user by email").Wrap(err)
	}

	code, err = GenerateResetCode()
	if err != nil {
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").With("operation", "generate code").Wrap(err)
	}

	user.ResetCode = &code
	user.Touch()
	if err = s.users.Update(ctx, user); err != nil {
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "store reset code").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID.String())
	return code, nil
}

// ResetPassword sets a new password when code matches the stored reset
// code. The code is consumed only together with a successful password
// update, so a rejected new password leaves it usable.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) (err error) {
	defer func() { s.metrics.observe("reset_password", err) }()

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return s.identityFailure(ctx, CodeAccountNotFound, "account not found")
	}
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").With("operation", "get user by email").Wrap(err)
	}

	if !VerifyResetCode(user.ResetCode, code) {
		return errPublic(CodeWrongResetCode, "wrong reset code")
	}

	if err = ValidatePassword(newPassword); err != nil {
		return err
	}

	if err = s.setPassword(ctx, user, newPassword, true); err != nil {
		return oops.Code("AUTH_RESET_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID.String())
	return nil
}

// UserInfo returns the public view of an authenticated user.
func (s *Service) UserInfo(user *User) UserInfo {
	return user.Info()
}

// VerifyAccess resolves an access token to its user.
func (s *Service) VerifyAccess(ctx context.Context, accessToken string) (*User, error) {
	return s.tokens.VerifyAccess(ctx, accessToken)
}

// setPassword hashes password and writes it, optionally clearing the reset
// code in the same update.
func (s *Service) setPassword(ctx context.Context, user *User, password string, clearReset bool) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.With("operation", "hash password").Wrap(err)
	}

	user.PasswordHash = hash
	if clearReset {
		user.ResetCode = nil
	}
	user.Touch()

	if err := s.users.Update(ctx, user); err != nil {
		return oops.With("operation", "update user").Wrap(err)
	}
	return nil
}

// identityFailure waits out the anti-enumeration delay and returns the
// public error for code.
func (s *Service) identityFailure(ctx context.Context, code, msg string) error {
	waited := s.delayer.Delay(ctx)
	s.metrics.observeDelay(waited)
	return errPublic(code, msg)
}
