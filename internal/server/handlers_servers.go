package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
	apperrors "github.com/edwin961/dv-dragons-dashboard/internal/errors"
)

// guildRow is one card on the server list.
type guildRow struct {
	ID          string
	Name        string
	IconURL     string
	ActionURL   string
	ActionLabel string
}

// handleServers renders the guild list: every guild where the user holds
// "Manage Guild", tagged with either the internal configuration page or the
// bot invite flow. The user's memberships and the bot's memberships are
// fetched concurrently.
func (s *Server) handleServers(c echo.Context) error {
	ctx := c.Request().Context()

	session, ok := c.Get(contextKeySession).(*domain.Session)
	if !ok {
		return apperrors.InternalError("missing session in context", nil)
	}

	var (
		userGuilds []domain.GuildSummary
		botGuilds  map[string]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		guilds, err := s.users.FetchGuilds(gctx, session.AccessToken)
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		if err != nil {
			// Malformed or failed guild responses degrade to an empty list;
			// the page still renders.
			slog.WarnContext(gctx, "Guild list degraded to empty", "user_id", session.User.ID, "error", err)
			return nil
		}
		userGuilds = guilds
		return nil
	})
	g.Go(func() error {
		ids, err := s.bot.GuildIDs(gctx)
		if err != nil {
			// Bot presence is advisory: on failure every guild gets the
			// invite action instead of an error page.
			slog.WarnContext(gctx, "Bot presence check failed, treating bot as absent", "error", err)
			return nil
		}
		botGuilds = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		// The stored token no longer works against Discord. The session is
		// dead weight; drop it and force a fresh login.
		slog.InfoContext(ctx, "Access token rejected, forcing re-login", "user_id", session.User.ID)
		s.destroySession(c, session.ID)
		if err := c.Redirect(http.StatusFound, "/"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	entries := domain.FilterAdministrable(userGuilds, botGuilds)

	rows := make([]guildRow, 0, len(entries))
	for _, entry := range entries {
		row := guildRow{
			ID:      entry.Guild.ID,
			Name:    entry.Guild.Name,
			IconURL: entry.Guild.IconURL,
		}
		switch entry.Action {
		case domain.ActionManage:
			row.ActionURL = "/dashboard/" + entry.Guild.ID
			row.ActionLabel = "Configure"
		case domain.ActionInvite:
			row.ActionURL = s.oauth.BotInviteURL(entry.Guild.ID)
			row.ActionLabel = "Invite bot"
		}
		rows = append(rows, row)
	}

	data := map[string]any{
		"Username":  session.User.Username,
		"AvatarURL": session.User.AvatarURL,
		"Guilds":    rows,
		"CSRFToken": c.Get("csrf"),
	}
	return s.renderTemplate(c, "servers.html", data)
}
