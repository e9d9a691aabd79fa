package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
	"github.com/edwin961/dv-dragons-dashboard/internal/metrics"
)

const userGuildsPageSize = 200

// UserClient reads the authenticated user's profile and guild memberships
// with their Bearer token. A fresh discordgo session is built per call; the
// token belongs to the request, not to the process.
type UserClient struct{}

func NewUserClient() *UserClient {
	return &UserClient{}
}

func bearerSession(accessToken string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Client = &http.Client{Timeout: callTimeout}
	return s, nil
}

// FetchProfile returns the authenticated user's profile (GET /users/@me).
func (UserClient) FetchProfile(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	s, err := bearerSession(accessToken)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	u, err := s.User("@me", discordgo.WithContext(ctx))
	observe("users_me", start, err)
	if err != nil {
		return nil, mapError("users_me", err)
	}

	return &domain.UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: AvatarURL(u.ID, u.Avatar),
	}, nil
}

// FetchGuilds returns the user's guild memberships (GET /users/@me/guilds)
// in Discord's original order.
func (UserClient) FetchGuilds(ctx context.Context, accessToken string) ([]domain.GuildSummary, error) {
	s, err := bearerSession(accessToken)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.UserGuilds(userGuildsPageSize, "", "", false, discordgo.WithContext(ctx))
	observe("users_me_guilds", start, err)
	if err != nil {
		return nil, mapError("users_me_guilds", err)
	}

	guilds := make([]domain.GuildSummary, 0, len(raw))
	for _, g := range raw {
		guilds = append(guilds, domain.GuildSummary{
			ID:          g.ID,
			Name:        g.Name,
			IconURL:     GuildIconURL(g.ID, g.Icon),
			Owner:       g.Owner,
			Permissions: g.Permissions,
		})
	}
	return guilds, nil
}

// mapError translates discordgo failures into domain errors: a 401 means the
// stored token is no longer usable (force re-login), an unmarshal failure
// means Discord answered with an unexpected shape.
func mapError(endpoint string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", endpoint, domain.ErrUnauthorized)
	}
	if errors.Is(err, discordgo.ErrJSONUnmarshal) {
		return fmt.Errorf("%s: %w", endpoint, domain.ErrUpstreamData)
	}
	return fmt.Errorf("%s: %w", endpoint, err)
}

func observe(endpoint string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.DiscordCallsTotal.WithLabelValues(endpoint, status).Inc()
	metrics.DiscordCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
