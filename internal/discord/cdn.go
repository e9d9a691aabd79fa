package discord

import "fmt"

const (
	cdnBaseURL = "https://cdn.discordapp.com"

	// served from the dashboard itself when Discord has no image for us
	placeholderImage = "/static/icon.png"
)

// AvatarURL derives the CDN URL for a user avatar hash, falling back to the
// local placeholder when the user has none.
func AvatarURL(userID, avatarHash string) string {
	if avatarHash == "" {
		return placeholderImage
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png", cdnBaseURL, userID, avatarHash)
}

// GuildIconURL derives the CDN URL for a guild icon hash, falling back to
// the local placeholder when the guild has none.
func GuildIconURL(guildID, iconHash string) string {
	if iconHash == "" {
		return placeholderImage
	}
	return fmt.Sprintf("%s/icons/%s/%s.png", cdnBaseURL, guildID, iconHash)
}
