// Package discord wraps every outbound call to Discord behind typed clients:
// the OAuth2 code exchange, user-scoped REST reads (Bearer scheme) and
// bot-scoped REST reads (Bot scheme). The two credential schemes are kept in
// separate types so they cannot be interchanged.
package discord

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	authorizeURL = "https://discord.com/oauth2/authorize"
	tokenURL     = "https://discord.com/api/oauth2/token"

	// permissions requested when inviting the bot into a guild
	botInvitePermissions = 8

	callTimeout = 10 * time.Second
)

// OAuthClient drives the authorization-code flow against Discord.
type OAuthClient struct {
	conf *oauth2.Config
}

func NewOAuthClient(clientID, clientSecret, redirectURI string) *OAuthClient {
	return &OAuthClient{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"identify", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthCodeURL returns the provider authorization URL the login page
// redirects to.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange converts a single-use authorization code into an access token.
// Never retried: a consumed code is rejected by Discord on reuse.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	start := time.Now()
	token, err := c.conf.Exchange(ctx, code)
	observe("token_exchange", start, err)
	if err != nil {
		// oauth2.RetrieveError carries Discord's error description; keep it.
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	return token.AccessToken, nil
}

// BotInviteURL returns Discord's bot-installation authorization URL for a
// guild the bot is not yet a member of.
func (c *OAuthClient) BotInviteURL(guildID string) string {
	q := url.Values{}
	q.Set("client_id", c.conf.ClientID)
	q.Set("scope", "bot")
	q.Set("permissions", fmt.Sprintf("%d", botInvitePermissions))
	q.Set("guild_id", guildID)
	return authorizeURL + "?" + q.Encode()
}
