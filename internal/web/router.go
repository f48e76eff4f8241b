// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/holomush/authcore/internal/observability"
)

// RouterDeps are the collaborators of NewRouter.
type RouterDeps struct {
	Service AuthService
	Cookie  CookieConfig
	// RateLimiter guards register, login and the reset routes. Nil disables
	// limiting.
	RateLimiter *RateLimiter
	// Metrics records per-route request metrics. Nil disables them.
	Metrics *observability.Metrics
	Logger  *slog.Logger
	// Development logs reset codes at debug level.
	Development bool
}

// NewRouter builds the API handler.
//
// Middleware order: request id, request log, panic recovery, security
// headers, metrics.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(deps.Service, deps.Cookie, logger, deps.Development)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(Instrument(deps.Metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: http.StatusText(http.StatusNotFound)})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware())
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/ask-reset-password", h.AskResetPassword)
			r.Post("/reset-password", h.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(deps.Service, logger))
			r.Post("/logout", h.Logout)
			r.Get("/info", h.Info)
			r.Post("/change-password", h.ChangePassword)
		})
	})

	return r
}
