package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/clipstream")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 10*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "us-east-1", cfg.Media.Region)
	assert.NotEmpty(t, cfg.UploadDir)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "72h")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("ACCESS_TOKEN_SECRET", "a")
		t.Setenv("REFRESH_TOKEN_SECRET", "r")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing token secrets", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/clipstream")
		t.Setenv("ACCESS_TOKEN_SECRET", "")
		t.Setenv("REFRESH_TOKEN_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseOrigins("a , b"))
	assert.Empty(t, parseOrigins(""))
	assert.Empty(t, parseOrigins(" , "))
}
