// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Duration is a time.Duration that also accepts a whole-day suffix, as in
// "30d".
type Duration time.Duration

// ParseDuration parses Go duration syntax or "<n>d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, oops.Code("CONFIG_INVALID").With("value", s).Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("value", s).Wrap(err)
	}
	return d, nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text leaves the
// duration unset.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
