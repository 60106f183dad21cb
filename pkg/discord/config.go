package discord

import "time"

// Config holds Discord API credentials.
type Config struct {
	BotToken       string        `env:"DISCORD_BOT_TOKEN,required"`               // BotToken authenticates guild/member mutations.
	APIBaseURL     string        `env:"DISCORD_API_BASE_URL" envDefault:"https://discord.com/api/v10"`
	RequestTimeout time.Duration `env:"DISCORD_REQUEST_TIMEOUT" envDefault:"10s"` // RequestTimeout bounds each REST call.
}

// OAuthConfig holds the OAuth2 application credentials for user login.
type OAuthConfig struct {
	ClientID     string   `env:"DISCORD_CLIENT_ID,required"`
	ClientSecret string   `env:"DISCORD_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"DISCORD_OAUTH_REDIRECT_URL,required"`
	Scopes       []string `env:"DISCORD_OAUTH_SCOPES" envSeparator:" " envDefault:"identify email guilds"`
}
