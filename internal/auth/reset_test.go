// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/internal/auth"
)

func TestGenerateResetCode(t *testing.T) {
	t.Run("generates four digits", func(t *testing.T) {
		for range 200 {
			code, err := auth.GenerateResetCode()
			require.NoError(t, err)
			assert.Regexp(t, `^[0-9]{4}$`, code)
		}
	})

	t.Run("draws from the whole code space", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 200 {
			code, err := auth.GenerateResetCode()
			require.NoError(t, err)
			seen[code] = struct{}{}
		}
		// 200 draws from 10000 codes collide heavily only if generation is broken.
		assert.Greater(t, len(seen), 150)
	})
}

func TestVerifyResetCode(t *testing.T) {
	code := func(s string) *string { return &s }

	tests := []struct {
		name     string
		stored   *string
		supplied string
		want     bool
	}{
		{"matching code", code("1234"), "1234", true},
		{"leading zeros are significant", code("0042"), "0042", true},
		{"leading zeros cannot be dropped", code("0042"), "42", false},
		{"different code", code("1234"), "4321", false},
		{"no pending code", nil, "1234", false},
		{"empty stored code", code(""), "", false},
		{"empty supplied code", code("1234"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.VerifyResetCode(tt.stored, tt.supplied))
		})
	}
}
