// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements account credentials and token-backed sessions.
//
// # Domain Types
//
// User and Token should be created with their constructors:
//   - NewUser - creates a User with a fresh ID and an already hashed password
//   - NewToken - creates a Token holding the digests of an issued pair
//
// Tokens are stored only as SHA256 digests (HashToken). Raw token values
// never reach a repository.
//
// # Services
//
//   - TokenService - issues, verifies, refreshes and revokes sessions
//   - Service - registration, login, logout, password change and reset
//
// Failures that reveal whether an account exists are returned only after a
// random delay (see Delayer). Errors a client may see carry one of the
// Code* constants; PublicCode and ErrorKind classify an error for transport.
package auth
