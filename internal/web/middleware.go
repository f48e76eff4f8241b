// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/logging"
	"github.com/holomush/authcore/internal/observability"
	"github.com/holomush/authcore/pkg/errutil"
)

// TokenVerifier resolves an access token to its user.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, accessToken string) (*auth.User, error)
}

type sessionKey struct{}

type session struct {
	user        *auth.User
	accessToken string
}

// ContextWithSession attaches an authenticated user and the access token
// that proved it.
func ContextWithSession(ctx context.Context, user *auth.User, accessToken string) context.Context {
	return context.WithValue(ctx, sessionKey{}, session{user: user, accessToken: accessToken})
}

// UserFromContext returns the user set by RequireAuth.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	s, ok := ctx.Value(sessionKey{}).(session)
	if !ok || s.user == nil {
		return nil, false
	}
	return s.user, true
}

// AccessTokenFromContext returns the bearer token accepted by RequireAuth.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sessionKey{}).(session)
	if !ok || s.accessToken == "" {
		return "", false
	}
	return s.accessToken, true
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid bearer access token with
// 401. Accepted requests carry the user in their context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w)
				return
			}

			user, err := verifier.VerifyAccess(r.Context(), token)
			if err != nil {
				if auth.ErrorKind(err) == auth.KindInternal {
					errutil.LogErrorContext(r.Context(), logger, "access token verification failed", err)
					writeJSON(w, http.StatusInternalServerError, errorBody{
						Error: http.StatusText(http.StatusInternalServerError),
					})
					return
				}
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), user, token)))
		})
	}
}

// SecurityHeaders sets conservative response headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger copies chi's request id into the logging context and logs
// one record per request. The level follows the response status.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if id := middleware.GetReqID(ctx); id != "" {
				ctx = logging.WithRequestID(ctx, id)
				r = r.WithContext(ctx)
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := statusOf(ww)
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.Log(ctx, level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
			)
		})
	}
}

// Instrument records request counts and latency by chi route pattern. A nil
// m disables it.
func Instrument(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(statusOf(ww))).Inc()
			m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
