package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
console:
  id: "lab-console"
  name: "Lab"
database:
  path: "/tmp/lab.db"
api:
  port: 8080
onenet:
  v1:
    api_key: "file-key"
  v2:
    user_id: "42"
    sign_method: "sha256"
    token_ttl: 600
cache:
  backend: memory
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lab-console", cfg.Console.ID)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "file-key", cfg.OneNET.V1.APIKey)
	assert.Equal(t, "sha256", cfg.OneNET.V2.SignMethod)
	assert.Equal(t, 10*time.Minute, cfg.GetTokenTTL())
	assert.Equal(t, "memory", cfg.Cache.Backend)

	// Untouched sections keep their defaults.
	assert.Equal(t, "http://api.onenet.hk.chinamobile.com", cfg.OneNET.V1.BaseURL)
	assert.Equal(t, "devices", cfg.Cache.Slot)
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "console: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
onenet:
  v2:
    sign_method: "sha512"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign_method")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
onenet:
  v1:
    api_key: "file-key"
`)
	t.Setenv("ONENETCONSOLE_V1_API_KEY", "env-key")
	t.Setenv("ONENETCONSOLE_V2_ACCESS_KEY", "c2VjcmV0")
	t.Setenv("ONENETCONSOLE_API_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.OneNET.V1.APIKey)
	assert.Equal(t, "c2VjcmV0", cfg.OneNET.V2.AccessKey)
	assert.Equal(t, 9090, cfg.API.Port)
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.GetOneNETTimeout())
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.False(t, cfg.Security.ConsoleAuth.Enabled)
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, "md5", cfg.OneNET.V2.SignMethod)
	assert.Equal(t, time.Duration(0), cfg.GetOneNETTimeout())
	assert.Equal(t, time.Hour, cfg.GetSessionTTL())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing console id",
			mutate:  func(c *Config) { c.Console.ID = "" },
			wantErr: "console.id",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:    "unknown sign method",
			mutate:  func(c *Config) { c.OneNET.V2.SignMethod = "crc32" },
			wantErr: "sign_method",
		},
		{
			name:    "non-positive token ttl",
			mutate:  func(c *Config) { c.OneNET.V2.TokenTTL = 0 },
			wantErr: "token_ttl",
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Cache.Backend = "redis" },
			wantErr: "cache.backend",
		},
		{
			name: "sqlite backend needs a path",
			mutate: func(c *Config) {
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name: "memory backend ignores database path",
			mutate: func(c *Config) {
				c.Cache.Backend = "memory"
				c.Database.Path = ""
			},
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
			},
			wantErr: "influxdb.url",
		},
		{
			name: "console auth with short secret",
			mutate: func(c *Config) {
				c.Security.ConsoleAuth.Enabled = true
				c.Security.ConsoleAuth.PasswordHash = "$argon2id$..."
				c.Security.JWT.Secret = "short"
			},
			wantErr: "jwt.secret",
		},
		{
			name: "console auth without password hash",
			mutate: func(c *Config) {
				c.Security.ConsoleAuth.Enabled = true
				c.Security.JWT.Secret = "0123456789abcdef0123456789abcdef"
			},
			wantErr: "password_hash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Console.ID = ""
	cfg.API.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "console.id")
	assert.Contains(t, err.Error(), "api.port")
}
