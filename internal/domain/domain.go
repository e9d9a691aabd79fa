// Package domain holds the core types shared across the dashboard: the
// authenticated user, guild summaries as Discord reports them, and the
// per-guild welcome configuration.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PermissionManageGuild is the "Manage Guild" bit in Discord's permission
// bitmask. A user can administer a guild through the dashboard iff this bit
// is set in their permissions for that guild.
const PermissionManageGuild int64 = 1 << 5

// UserProfile is the minimal slice of the Discord user we keep around.
type UserProfile struct {
	ID        string
	Username  string
	AvatarURL string
}

// GuildSummary mirrors one entry of Discord's /users/@me/guilds response.
// It is ephemeral: refetched on every guild-list view, never persisted.
type GuildSummary struct {
	ID          string
	Name        string
	IconURL     string
	Owner       bool
	Permissions int64
}

// GuildAction says what the dashboard offers for an administrable guild.
type GuildAction string

const (
	// ActionManage links to the internal configuration page (bot present).
	ActionManage GuildAction = "manage"
	// ActionInvite links to Discord's bot-installation flow (bot absent).
	ActionInvite GuildAction = "invite"
)

// GuildEntry pairs an administrable guild with the action offered for it.
type GuildEntry struct {
	Guild  GuildSummary
	Action GuildAction
}

// WelcomeConfig is the per-guild welcome message configuration. Exactly one
// row exists per guild after any successful save; saves overwrite wholesale.
type WelcomeConfig struct {
	GuildID   string
	ChannelID string
	Header    string
	BodyText  string
	ImageURL  string
	UpdatedAt time.Time
}

// Channel is a text channel eligible as a welcome target.
type Channel struct {
	ID   string
	Name string
}

// Role is a guild role, shown on the configuration page.
type Role struct {
	ID   string
	Name string
}

// Session is the server-side session record. The access token never leaves
// the server; the browser only holds the opaque session ID.
type Session struct {
	ID          uuid.UUID
	AccessToken string
	User        UserProfile
	CreatedAt   time.Time
}
