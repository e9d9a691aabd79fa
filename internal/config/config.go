// Package config loads the application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv              string `env:"APP_ENV" default:"development"`
	Port                string `env:"PORT" default:"3000"`
	DatabaseURL         string `env:"DATABASE_URL"`
	RedisURL            string `env:"REDIS_URL"`
	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string `env:"DISCORD_REDIRECT_URI"`
	DiscordBotToken     string `env:"DISCORD_BOT_TOKEN"`
	SessionSecret       string `env:"SESSION_SECRET"`
	TokenEncryptionKey  string `env:"TOKEN_ENCRYPTION_KEY"`
	LogLevel            string `env:"LOG_LEVEL" default:"info"`
	LogFormat           string `env:"LOG_FORMAT" default:"text"`

	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"1h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":          cfg.DatabaseURL,
		"REDIS_URL":             cfg.RedisURL,
		"DISCORD_CLIENT_ID":     cfg.DiscordClientID,
		"DISCORD_CLIENT_SECRET": cfg.DiscordClientSecret,
		"DISCORD_REDIRECT_URI":  cfg.DiscordRedirectURI,
		"DISCORD_BOT_TOKEN":     cfg.DiscordBotToken,
		"SESSION_SECRET":        cfg.SessionSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive, got %s", cfg.SessionMaxAge)
	}

	// Token encryption is optional; when set the key must be AES-256 sized.
	if cfg.TokenEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.TokenEncryptionKey)
		if err != nil {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	return nil
}
