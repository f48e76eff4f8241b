// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when an insert collides with a unique key.
var ErrAlreadyExists = errors.New("already exists")

// Client-facing error codes. These values are part of the HTTP contract and
// are returned verbatim in error bodies.
const (
	CodeUserAlreadyExists       = "user_already_exist"
	CodeAccountNotFound         = "account_not_found"
	CodePasswordValidationError = "password_validation_error"
	CodeEmailNotValid           = "email_not_valid"
	CodePasswordError           = "password_error"
	CodeWrongResetCode          = "wrong_reset_code"
	CodeInvalidToken            = "invalid_token"
	CodeBadRequest              = "bad_request"
	CodeUnauthorized            = "unauthorized"
)

// Kind classifies an error for transport mapping.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

var publicCodes = map[string]Kind{
	CodeUserAlreadyExists:       KindBadRequest,
	CodeAccountNotFound:         KindBadRequest,
	CodePasswordValidationError: KindBadRequest,
	CodeEmailNotValid:           KindBadRequest,
	CodePasswordError:           KindBadRequest,
	CodeWrongResetCode:          KindBadRequest,
	CodeBadRequest:              KindBadRequest,
	CodeInvalidToken:            KindUnauthorized,
	CodeUnauthorized:            KindUnauthorized,
}

// PublicCode returns the client-facing code carried by err, or "" when err
// is internal.
func PublicCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	if _, public := publicCodes[code]; public {
		return code
	}
	return ""
}

// ErrorKind reports how err should be surfaced to a client.
func ErrorKind(err error) Kind {
	if code := PublicCode(err); code != "" {
		return publicCodes[code]
	}
	return KindInternal
}

// errPublic builds a client-facing error with no further detail.
func errPublic(code, msg string) error {
	return oops.Code(code).Errorf("%s", msg)
}
