package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
)

type WelcomeRepo struct {
	pool *pgxpool.Pool
}

func NewWelcomeRepo(pool *pgxpool.Pool) *WelcomeRepo {
	return &WelcomeRepo{pool: pool}
}

// Upsert writes the whole config for a guild, replacing any previous row.
// Concurrent saves for the same guild race at the storage layer;
// last-write-wins is the accepted policy.
func (r *WelcomeRepo) Upsert(ctx context.Context, cfg domain.WelcomeConfig) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO welcome_configs (guild_id, channel_id, header, body_text, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (guild_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			header = EXCLUDED.header,
			body_text = EXCLUDED.body_text,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
	`, cfg.GuildID, cfg.ChannelID, cfg.Header, cfg.BodyText, cfg.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to upsert welcome config: %w", err)
	}
	return nil
}

// GetByGuildID returns the stored config for a guild, or ErrConfigNotFound.
// Absence is not exceptional: callers substitute empty defaults.
func (r *WelcomeRepo) GetByGuildID(ctx context.Context, guildID string) (*domain.WelcomeConfig, error) {
	var cfg domain.WelcomeConfig
	err := r.pool.QueryRow(ctx, `
		SELECT guild_id, channel_id, header, body_text, image_url, updated_at
		FROM welcome_configs
		WHERE guild_id = $1
	`, guildID).Scan(&cfg.GuildID, &cfg.ChannelID, &cfg.Header, &cfg.BodyText, &cfg.ImageURL, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get welcome config: %w", err)
	}
	return &cfg, nil
}
