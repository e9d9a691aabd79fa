package domain

// Administrable reports whether the permission bitmask grants the
// "Manage Guild" right.
func Administrable(permissions int64) bool {
	return permissions&PermissionManageGuild == PermissionManageGuild
}

// FilterAdministrable retains the guilds the user can administer and tags
// each with the action the dashboard offers: manage when the bot is already
// a member, invite otherwise. Discord's original ordering is preserved.
// An empty bot-presence set simply yields invite actions everywhere.
func FilterAdministrable(guilds []GuildSummary, botGuilds map[string]bool) []GuildEntry {
	entries := make([]GuildEntry, 0, len(guilds))
	for _, g := range guilds {
		if !Administrable(g.Permissions) {
			continue
		}
		action := ActionInvite
		if botGuilds[g.ID] {
			action = ActionManage
		}
		entries = append(entries, GuildEntry{Guild: g, Action: action})
	}
	return entries
}
