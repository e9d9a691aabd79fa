package discord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
)

// BotClient reads guild data with the service account's Bot credential.
// REST only — the gateway is never opened; bot runtime behavior is out of
// scope here.
type BotClient struct {
	session *discordgo.Session
}

func NewBotClient(botToken string) (*BotClient, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot session: %w", err)
	}
	s.Client = &http.Client{Timeout: callTimeout}
	return &BotClient{session: s}, nil
}

// GuildIDs returns the set of guilds the bot account belongs to, paginating
// through /users/@me/guilds. Callers treat any error as "bot present
// nowhere" so the guild list still renders.
func (b *BotClient) GuildIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	afterID := ""

	for {
		start := time.Now()
		page, err := b.session.UserGuilds(userGuildsPageSize, "", afterID, false, discordgo.WithContext(ctx))
		observe("bot_guilds", start, err)
		if err != nil {
			return nil, mapError("bot_guilds", err)
		}

		for _, g := range page {
			ids[g.ID] = true
		}

		if len(page) < userGuildsPageSize {
			return ids, nil
		}
		afterID = page[len(page)-1].ID
	}
}

// Channels returns the guild's text channels, in Discord's order.
func (b *BotClient) Channels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	start := time.Now()
	raw, err := b.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	observe("guild_channels", start, err)
	if err != nil {
		return nil, mapError("guild_channels", err)
	}

	channels := make([]domain.Channel, 0, len(raw))
	for _, ch := range raw {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		channels = append(channels, domain.Channel{ID: ch.ID, Name: ch.Name})
	}
	return channels, nil
}

// Roles returns the guild's roles, without the implicit @everyone role.
func (b *BotClient) Roles(ctx context.Context, guildID string) ([]domain.Role, error) {
	start := time.Now()
	raw, err := b.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	observe("guild_roles", start, err)
	if err != nil {
		return nil, mapError("guild_roles", err)
	}

	roles := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		if r.ID == guildID { // @everyone shares the guild's ID
			continue
		}
		roles = append(roles, domain.Role{ID: r.ID, Name: r.Name})
	}
	return roles, nil
}
