package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
	apperrors "github.com/edwin961/dv-dragons-dashboard/internal/errors"
	"github.com/edwin961/dv-dragons-dashboard/internal/metrics"
)

// handleGuildConfig renders the per-guild configuration page. It is only
// reachable for guilds the user can manage and the bot is a member of;
// anything else bounces back to the server list.
func (s *Server) handleGuildConfig(c echo.Context) error {
	ctx := c.Request().Context()

	guildID := c.Param("guildID")
	if guildID == "" {
		return apperrors.ValidationError("missing guild ID")
	}

	session, ok := c.Get(contextKeySession).(*domain.Session)
	if !ok {
		return apperrors.InternalError("missing session in context", nil)
	}

	guilds, err := s.users.FetchGuilds(ctx, session.AccessToken)
	if errors.Is(err, domain.ErrUnauthorized) {
		slog.InfoContext(ctx, "Access token rejected, forcing re-login", "user_id", session.User.ID)
		s.destroySession(c, session.ID)
		if err := c.Redirect(http.StatusFound, "/"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Guild list degraded to empty", "user_id", session.User.ID, "error", err)
	}

	var guild *domain.GuildSummary
	for _, g := range guilds {
		if g.ID == guildID && domain.Administrable(g.Permissions) {
			guild = &g
			break
		}
	}
	if guild == nil {
		if err := c.Redirect(http.StatusFound, "/servers"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	botGuilds, err := s.bot.GuildIDs(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Bot presence check failed", "guild_id", guildID, "error", err)
	}
	if !botGuilds[guildID] {
		if err := c.Redirect(http.StatusFound, "/servers"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	// Channel and role listings are decoration around the form; failures
	// degrade to empty lists with a warning.
	channels, err := s.bot.Channels(ctx, guildID)
	if err != nil {
		slog.WarnContext(ctx, "Channel list degraded to empty", "guild_id", guildID, "error", err)
		channels = nil
	}
	roles, err := s.bot.Roles(ctx, guildID)
	if err != nil {
		slog.WarnContext(ctx, "Role list degraded to empty", "guild_id", guildID, "error", err)
		roles = nil
	}

	// Config reads degrade to empty defaults; only the save path may fail hard.
	welcomeCfg, err := s.welcome.GetByGuildID(ctx, guildID)
	if err != nil {
		if !errors.Is(err, domain.ErrConfigNotFound) {
			slog.WarnContext(ctx, "Welcome config read degraded to defaults", "guild_id", guildID, "error", err)
		}
		welcomeCfg = &domain.WelcomeConfig{GuildID: guildID}
	}

	data := map[string]any{
		"GuildID":   guild.ID,
		"GuildName": guild.Name,
		"Username":  session.User.Username,
		"AvatarURL": session.User.AvatarURL,
		"Channels":  channels,
		"Roles":     roles,
		"Config":    welcomeCfg,
		"CSRFToken": c.Get("csrf"),
	}
	return s.renderTemplate(c, "dashboard.html", data)
}

type saveWelcomeRequest struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"canal_id"`
	Header    string `json:"encabezado"`
	BodyText  string `json:"texto"`
	ImageURL  string `json:"gif"`
}

// handleSaveWelcome persists the welcome configuration for a guild. Saves
// overwrite wholesale; concurrent saves resolve last-write-wins in Postgres.
func (s *Server) handleSaveWelcome(c echo.Context) error {
	ctx := c.Request().Context()

	var req saveWelcomeRequest
	if err := c.Bind(&req); err != nil {
		metrics.WelcomeSavesTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("invalid request body")
	}

	if strings.TrimSpace(req.GuildID) == "" {
		metrics.WelcomeSavesTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("guild_id is required")
	}

	cfg := domain.WelcomeConfig{
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Header:    req.Header,
		BodyText:  req.BodyText,
		ImageURL:  req.ImageURL,
	}
	if err := s.welcome.Upsert(ctx, cfg); err != nil {
		metrics.WelcomeSavesTotal.WithLabelValues("error").Inc()
		return apperrors.InternalError("failed to save welcome config", err).WithField("guild_id", req.GuildID)
	}

	metrics.WelcomeSavesTotal.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "Welcome config saved", "guild_id", req.GuildID, "channel_id", req.ChannelID)

	if err := c.JSON(http.StatusOK, map[string]string{"message": "Configuración guardada correctamente"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
