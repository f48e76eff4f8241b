// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/samber/oops"
)

// ResetCodeDigits is the length of a password reset code.
const ResetCodeDigits = 4

var resetCodeSpace = big.NewInt(10_000)

// GenerateResetCode returns a uniformly random four digit code. Leading
// zeros are kept, so "0042" is a valid code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, resetCodeSpace)
	if err != nil {
		return "", oops.Code("RESET_CODE_GENERATE_FAILED").
			With("operation", "crypto/rand.Int").
			Wrap(err)
	}
	return fmt.Sprintf("%0*d", ResetCodeDigits, n.Int64()), nil
}

// VerifyResetCode compares a supplied code with the stored one in constant
// time. A nil stored code never matches.
func VerifyResetCode(stored *string, supplied string) bool {
	if stored == nil || *stored == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(supplied)) == 1
}
