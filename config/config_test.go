package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "DB_HOST", "DB_PORT", "JWT_TTL", "RABBITMQ_URL"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.True(t, cfg.Verbose())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")

	cfg := LoadConfig()

	assert.False(t, cfg.Verbose())
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 50, cfg.RateLimitBurst)
	assert.Equal(t, 2*time.Second, cfg.DBConnectTimeout)
}

func TestSecretsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_password")
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))

	t.Setenv("DB_PASSWORD_FILE", path)
	t.Setenv("DB_PASSWORD", "ignored")

	assert.Equal(t, "s3cret", LoadConfig().DBPassword)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FRONTEND_URL=http://shop.test\n"), 0o600))
	t.Setenv("FRONTEND_URL", "")
	os.Unsetenv("FRONTEND_URL")

	cfg := Load(path)

	assert.Equal(t, "http://shop.test", cfg.FrontendURL)
}
