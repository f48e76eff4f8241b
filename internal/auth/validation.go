// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Password length bounds, counted in characters.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 20
)

// ValidatePassword checks a new password against the length policy.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return errPublic(CodePasswordValidationError, "password must be between 8 and 20 characters")
	}
	return nil
}

// ValidateEmail checks that email is a bare, well-formed address with a
// hostname domain. Display names, angle brackets and IP literals are
// rejected, and the top-level label must be at least two letters.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return errPublic(CodeEmailNotValid, "email is not valid")
	}

	at := strings.LastIndexByte(email, '@')
	if !validDomain(email[at+1:]) {
		return errPublic(CodeEmailNotValid, "email is not valid")
	}
	return nil
}

func validDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !isASCIILetter(r) {
			return false
		}
	}
	return true
}

// validLabel accepts 1-63 letters, digits and inner hyphens.
func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		if !isASCIILetter(r) && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
