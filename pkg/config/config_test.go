package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
server:
  port: 9090
  read_timeout: 5s
database:
  driver: postgres
  dsn: "postgres://localhost/moneymap?sslmode=disable"
auth:
  session_ttl: 2h
redis:
  enabled: true
  addr: "redis:6379"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_GeneratesSecretWhenUnset(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	first, err := Load("")
	require.NoError(t, err)
	second, err := Load("")
	require.NoError(t, err)

	assert.True(t, first.Auth.SecretGenerated)
	assert.Len(t, first.Auth.JWTSecret, 64)
	assert.NotEqual(t, first.Auth.JWTSecret, second.Auth.JWTSecret)
	assert.Empty(t, Defaults().Auth.JWTSecret)
}

func TestLoad_ConfiguredSecretIsKept(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-the-environment")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-the-environment", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.SecretGenerated)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load("")
	assert.Error(t, err)
}

func TestGetEnvOrDefaultAsDuration(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "30")
	assert.Equal(t, 30*time.Second, GetEnvOrDefaultAsDuration("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "1m")
	assert.Equal(t, time.Minute, GetEnvOrDefaultAsDuration("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "garbage")
	assert.Equal(t, time.Second, GetEnvOrDefaultAsDuration("SOME_TIMEOUT", time.Second))
}
