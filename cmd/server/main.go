package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/edwin961/dv-dragons-dashboard/internal/config"
	"github.com/edwin961/dv-dragons-dashboard/internal/crypto"
	"github.com/edwin961/dv-dragons-dashboard/internal/database"
	"github.com/edwin961/dv-dragons-dashboard/internal/discord"
	"github.com/edwin961/dv-dragons-dashboard/internal/logging"
	"github.com/edwin961/dv-dragons-dashboard/internal/redis"
	"github.com/edwin961/dv-dragons-dashboard/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupTokenCipher(cfg *config.Config) crypto.TokenCipher {
	if cfg.TokenEncryptionKey == "" {
		slog.Warn("TOKEN_ENCRYPTION_KEY not set, access tokens are stored unencrypted")
		return crypto.PlainCipher{}
	}
	cipher, err := crypto.NewAESCipher(cfg.TokenEncryptionKey)
	if err != nil {
		slog.Error("Failed to create token cipher", "error", err)
		os.Exit(1)
	}
	return cipher
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	sessionRepo := redis.NewSessionRepo(redisClient, setupTokenCipher(cfg), clock, cfg.SessionMaxAge)
	welcomeRepo := database.NewWelcomeRepo(pool)

	oauthClient := discord.NewOAuthClient(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURI)
	userClient := discord.NewUserClient()
	botClient, err := discord.NewBotClient(cfg.DiscordBotToken)
	if err != nil {
		slog.Error("Failed to create Discord bot client", "error", err)
		os.Exit(1)
	}

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv, err := server.NewServer(cfg, oauthClient, userClient, botClient, sessionRepo, welcomeRepo, healthChecks)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
