// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/authcore/internal/auth"
)

// maxBodyBytes caps request bodies on every JSON route.
const maxBodyBytes = 1 << 20

// AuthService is the subset of *auth.Service the handlers call.
type AuthService interface {
	TokenVerifier
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	ChangePassword(ctx context.Context, userID ulid.ULID, oldPassword, newPassword string) error
	AskResetPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// Handler serves the /auth routes.
type Handler struct {
	svc    AuthService
	cookie CookieConfig
	logger *slog.Logger
	// exposeResetCode logs reset codes at debug level. Development only.
	exposeResetCode bool
}

// NewHandler creates a Handler.
func NewHandler(svc AuthService, cookie CookieConfig, logger *slog.Logger, exposeResetCode bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, cookie: cookie, logger: logger, exposeResetCode: exposeResetCode}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type askResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email     string `json:"email"`
	ResetCode string `json:"resetCode"`
	Password  string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// decode reads a JSON body into dst. On failure it has already written a
// bad_request response.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, auth.CodeBadRequest)
		return false
	}
	return true
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID.String()})
}

// Login handles POST /auth/login. The refresh token goes only into the
// cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.cookie.setRefresh(w, result.RefreshToken, result.RefreshTTL)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: result.AccessToken})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := AccessTokenFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.svc.Logout(r.Context(), token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.cookie.clearRefresh(w)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /auth/refresh. Any failure clears the cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.svc.Refresh(r.Context(), refreshFromRequest(r))
	if err != nil {
		h.cookie.clearRefresh(w)
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: access})
}

// Info handles GET /auth/info.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, user.Info())
}

// ChangePassword handles POST /auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AskResetPassword handles POST /auth/ask-reset-password. The code is never
// sent back to the caller.
func (h *Handler) AskResetPassword(w http.ResponseWriter, r *http.Request) {
	var req askResetRequest
	if !decode(w, r, &req) {
		return
	}

	code, err := h.svc.AskResetPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if h.exposeResetCode {
		h.logger.DebugContext(r.Context(), "reset code issued", "email", req.Email, "reset_code", code)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "OK"})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Email, req.ResetCode, req.Password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
