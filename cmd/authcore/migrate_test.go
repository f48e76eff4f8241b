// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/pkg/errutil"
)

type fakeMigrator struct {
	version uint
	dirty   bool
	pending []uint
	err     error

	upCalls   int
	downCalls int
	steps     []int
	forced    []int
	closed    bool
}

func (f *fakeMigrator) Up() error {
	f.upCalls++
	return f.err
}

func (f *fakeMigrator) Down() error {
	f.downCalls++
	return f.err
}

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return f.err
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	return f.err
}

func (f *fakeMigrator) PendingMigrations() ([]uint, error) { return f.pending, nil }

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func migrateRoot(t *testing.T, m *fakeMigrator) (*fakeMigrator, func(args ...string) (string, error)) {
	t.Helper()
	var gotURL string
	factory := func(url string) (Migrator, error) {
		gotURL = url
		return m, nil
	}
	run := func(args ...string) (string, error) {
		out, _, err := execute(t, newRootCmd(rootDeps{migrators: factory}), append([]string{"migrate"}, args...)...)
		if err == nil {
			assert.Equal(t, "postgres://authcore@localhost:5432/authcore", gotURL)
		}
		return out, err
	}
	return m, run
}

func TestMigrateUp(t *testing.T) {
	setTestEnv(t)

	t.Run("applies pending", func(t *testing.T) {
		m, run := migrateRoot(t, &fakeMigrator{pending: []uint{1, 2}})
		out, err := run("up")
		require.NoError(t, err)
		assert.Equal(t, 1, m.upCalls)
		assert.Contains(t, out, "Applied 2 migration(s)")
		assert.True(t, m.closed)
	})

	t.Run("nothing pending", func(t *testing.T) {
		m, run := migrateRoot(t, &fakeMigrator{})
		out, err := run("up")
		require.NoError(t, err)
		assert.Zero(t, m.upCalls)
		assert.Contains(t, out, "up to date")
	})

	t.Run("failure closes migrator", func(t *testing.T) {
		m, run := migrateRoot(t, &fakeMigrator{pending: []uint{1}, err: errors.New("boom")})
		_, err := run("up")
		require.Error(t, err)
		assert.True(t, m.closed)
	})
}

func TestMigrateUp_NeedsOnlyDatabaseConfig(t *testing.T) {
	setTestEnv(t)
	t.Setenv("AUTHCORE_TOKEN_ACCESS_SECRET", "")
	t.Setenv("AUTHCORE_TOKEN_REFRESH_TTL", "")

	m, run := migrateRoot(t, &fakeMigrator{pending: []uint{1}})
	_, err := run("up")
	require.NoError(t, err)
	assert.Equal(t, 1, m.upCalls)
}

func TestMigrateDown(t *testing.T) {
	setTestEnv(t)

	m, run := migrateRoot(t, &fakeMigrator{})
	out, err := run("down")
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, m.steps)
	assert.Zero(t, m.downCalls)
	assert.Contains(t, out, "Rolled back 1 migration")

	m, run = migrateRoot(t, &fakeMigrator{})
	_, err = run("down", "--all")
	require.NoError(t, err)
	assert.Equal(t, 1, m.downCalls)
}

func TestMigrateVersion(t *testing.T) {
	setTestEnv(t)

	_, run := migrateRoot(t, &fakeMigrator{version: 1, dirty: true, pending: []uint{2}})
	out, err := run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 1 (dirty), pending: 1")
}

func TestMigrateForce(t *testing.T) {
	setTestEnv(t)

	m, run := migrateRoot(t, &fakeMigrator{})
	_, err := run("force", "2")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, m.forced)

	m, run = migrateRoot(t, &fakeMigrator{})
	_, err = run("force", "--", "-1")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
	assert.Empty(t, m.forced)
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "valid integer", input: "3", want: 3},
		{name: "zero is valid", input: "0", want: 0},
		{name: "leading whitespace", input: "  42", want: 42},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "float", input: "1.5", wantErr: true},
		{name: "trailing chars", input: "3abc", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseForceVersion(tt.input)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
