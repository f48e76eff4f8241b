// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/auth/postgres"
	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/store"
)

// app is the service graph over one database handle.
type app struct {
	service *auth.Service
	tokens  *auth.TokenService
}

// newApp wires repositories, token service and auth service. Auth metrics
// are registered on reg.
func newApp(db store.Querier, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app, error) {
	users := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	metrics := auth.NewMetrics(reg)

	tokens, err := auth.NewTokenService(tokenRepo, users, cfg.AuthTokenConfig(),
		auth.WithTokenLogger(logger),
		auth.WithTokenMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	service, err := auth.NewAuthService(users, tokens, auth.NewArgon2idHasher(),
		auth.WithLogger(logger),
		auth.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	return &app{service: service, tokens: tokens}, nil
}
