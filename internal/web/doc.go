// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web exposes the auth service over HTTP.
//
// Routes live under /auth. Protected routes sit behind RequireAuth, which
// resolves the bearer access token to a user. Unauthenticated credential
// routes are rate limited per client IP. The refresh token travels only in
// the HttpOnly "refresh" cookie scoped to /auth.
package web
