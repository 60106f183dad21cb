package discord

// Guild is a Discord server, partial to the fields this service reads.
type Guild struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	OwnerID string `json:"owner_id"`
	// Owner is only populated on /users/@me/guilds responses and reports
	// whether the requesting user owns the guild.
	Owner bool `json:"owner"`
}

// Role is a guild role. Managed roles belong to integrations and cannot be
// granted manually.
type Role struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Managed bool   `json:"managed"`
}

// Member is a guild member, partial to the fields this service reads.
type Member struct {
	User  User     `json:"user"`
	Roles []string `json:"roles"`
}

// User is a Discord account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}
