package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("DISCORD_CLIENT_ID", "test-client-id")
	t.Setenv("DISCORD_CLIENT_SECRET", "test-client-secret")
	t.Setenv("DISCORD_REDIRECT_URI", "http://localhost:3000/callback")
	t.Setenv("DISCORD_BOT_TOKEN", "test-bot-token")
	t.Setenv("SESSION_SECRET", "test-session-secret")
}

func TestLoad_AllRequiredVarsSet(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	assert.Equal(t, "test-client-id", cfg.DiscordClientID)
	assert.Equal(t, "test-client-secret", cfg.DiscordClientSecret)
	assert.Equal(t, "http://localhost:3000/callback", cfg.DiscordRedirectURI)
	assert.Equal(t, "test-bot-token", cfg.DiscordBotToken)
	assert.Equal(t, "test-session-secret", cfg.SessionSecret)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		skipEnv string
		wantErr string
	}{
		{"missing DATABASE_URL", "DATABASE_URL", "DATABASE_URL is required"},
		{"missing REDIS_URL", "REDIS_URL", "REDIS_URL is required"},
		{"missing DISCORD_CLIENT_ID", "DISCORD_CLIENT_ID", "DISCORD_CLIENT_ID is required"},
		{"missing DISCORD_CLIENT_SECRET", "DISCORD_CLIENT_SECRET", "DISCORD_CLIENT_SECRET is required"},
		{"missing DISCORD_REDIRECT_URI", "DISCORD_REDIRECT_URI", "DISCORD_REDIRECT_URI is required"},
		{"missing DISCORD_BOT_TOKEN", "DISCORD_BOT_TOKEN", "DISCORD_BOT_TOKEN is required"},
		{"missing SESSION_SECRET", "SESSION_SECRET", "SESSION_SECRET is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.skipEnv, "")

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.SessionMaxAge)
}

func TestLoad_CustomPortAndEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoad_EncryptionKeyValidation(t *testing.T) {
	t.Run("valid 32-byte hex key", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("TOKEN_ENCRYPTION_KEY", strings.Repeat("ab", 32))

		_, err := Load()
		assert.NoError(t, err)
	})

	t.Run("non-hex key", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("TOKEN_ENCRYPTION_KEY", "not-hex!")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be valid hex")
	})

	t.Run("wrong key length", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("TOKEN_ENCRYPTION_KEY", "abcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "64 hex characters")
	})
}

func TestLoad_NegativeSessionMaxAge(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_MAX_AGE", "-5m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_MAX_AGE must be positive")
}
