package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/onenet-console/internal/infrastructure/config"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

func writeTestConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(configEnvVar, path)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv(configEnvVar, "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestRun_InvalidSettings(t *testing.T) {
	writeTestConfig(t, `
onenet:
  v2:
    sign_method: "sha512"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Error(t, run(ctx))
}

func TestRun_MemoryBackendStartsAndStops(t *testing.T) {
	writeTestConfig(t, `
console:
  id: test-console
api:
  host: "127.0.0.1"
  port: 38417
cache:
  backend: memory
logging:
  level: error
  format: text
`)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx))
}

func TestRun_SQLiteBackendStartsAndStops(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "console.db")
	writeTestConfig(t, `
console:
  id: test-console
database:
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
api:
  host: "127.0.0.1"
  port: 38418
cache:
  backend: sqlite
logging:
  level: error
  format: text
`)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, run(ctx))
	assert.FileExists(t, dbPath)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(configEnvVar, "")
	assert.Equal(t, defaultConfigPath, getConfigPath())

	t.Setenv(configEnvVar, "/custom/path/config.yaml")
	assert.Equal(t, "/custom/path/config.yaml", getConfigPath())
}

func TestNewMinter(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	t.Run("local signing", func(t *testing.T) {
		minter, err := newMinter(cfg)
		require.NoError(t, err)

		token, err := minter.Mint(context.Background(), "42", "c2VjcmV0")
		require.NoError(t, err)

		capability, err := onenet.VerifyCapability(token, "c2VjcmV0", time.Now())
		require.NoError(t, err)
		assert.Equal(t, onenet.SignMD5, capability.Method)
		assert.Equal(t, "userid/42", capability.Resource)
	})

	t.Run("unknown sign method", func(t *testing.T) {
		bad := *cfg
		bad.OneNET.V2.SignMethod = "crc32"
		_, err := newMinter(&bad)
		assert.Error(t, err)
	})

	t.Run("external service", func(t *testing.T) {
		remote := *cfg
		remote.OneNET.TokenMinter.URL = "http://127.0.0.1:1/token"
		minter, err := newMinter(&remote)
		require.NoError(t, err)
		assert.IsType(t, &onenet.CachingMinter{}, minter)
	})
}
