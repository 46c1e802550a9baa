package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	got, err := parseSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = parseSteps([]string{" 3 "})
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = parseSteps([]string{"0"})
	assert.Error(t, err)
	_, err = parseSteps([]string{"two"})
	assert.Error(t, err)
}

func TestParseVersionAndTarget(t *testing.T) {
	version, err := parseVersion("1771776034")
	require.NoError(t, err)
	assert.Equal(t, 1771776034, version)

	_, err = parseVersion("-1")
	assert.Error(t, err)

	target, err := parseTarget("1771776034")
	require.NoError(t, err)
	assert.Equal(t, uint(1771776034), target)

	_, err = parseTarget("latest")
	assert.Error(t, err)
}

func TestIgnoreNoChange(t *testing.T) {
	assert.NoError(t, ignoreNoChange(logging.NewNop(), migrate.ErrNoChange))
	assert.NoError(t, ignoreNoChange(logging.NewNop(), nil))
	assert.Error(t, ignoreNoChange(logging.NewNop(), os.ErrClosed))
}

func TestRun_RejectsUnknownCommand(t *testing.T) {
	err := run(logging.NewNop(), "sideways", nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	err := run(logging.NewNop(), "up", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
}

func TestResolveMigrationsDir_FromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIGRATIONS_DIR", dir)

	got, err := resolveMigrationsDir()
	require.NoError(t, err)

	want, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
