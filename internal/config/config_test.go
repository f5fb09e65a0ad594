package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

backend:
  base_url: "https://mail.example.com/api"
  api_token: "test-token"
  timeout_seconds: 45

dispatch:
  per_sender_cap: 500
  watchdog_seconds: 10

history:
  enabled: true
  database_url: "postgres://localhost/console_test?sslmode=disable"

redis:
  enabled: true
  addr: "localhost:6380"
  ttl_seconds: 120
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "https://mail.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, "test-token", cfg.Backend.APIToken)
	assert.Equal(t, 45, cfg.Backend.TimeoutSeconds)

	assert.Equal(t, 500, cfg.Dispatch.PerSenderCap)
	assert.Equal(t, 10, cfg.Dispatch.WatchdogSeconds)

	assert.True(t, cfg.History.Enabled)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 120, cfg.Redis.TTLSeconds)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte(`backend:
  base_url: "https://mail.example.com/api"
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 60, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, 400, cfg.Dispatch.PerSenderCap)
	assert.Equal(t, 5, cfg.Dispatch.WatchdogSeconds)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte(`backend:
  base_url: "https://mail.example.com/api"
`), 0644)
	require.NoError(t, err)

	t.Setenv("BACKEND_BASE_URL", "https://override.example.com/api")
	t.Setenv("BACKEND_API_TOKEN", "env-token")
	t.Setenv("DISPATCH_PER_SENDER_CAP", "250")
	t.Setenv("DATABASE_URL", "postgres://localhost/console?sslmode=disable")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, "env-token", cfg.Backend.APIToken)
	assert.Equal(t, 250, cfg.Dispatch.PerSenderCap)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "postgres://localhost/console?sslmode=disable", cfg.History.DatabaseURL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
}
