package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client calls the Discord REST API authenticated as the platform bot.
// Methods that act on behalf of a user take the user's bearer token
// explicitly; the client never stores user tokens.
type Client struct {
	httpClient *http.Client
	botToken   string
	baseURL    string
}

// NewClient creates a Discord REST client from the given configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		botToken:   cfg.BotToken,
		baseURL:    cfg.APIBaseURL,
	}
}

// Guild fetches a guild by id using the bot token. A successful response also
// proves the bot is a member of the guild.
func (c *Client) Guild(ctx context.Context, guildID string) (*Guild, error) {
	var g Guild
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID, c.botAuth(), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GuildRoles lists a guild's roles, excluding managed (integration) roles.
func (c *Client) GuildRoles(ctx context.Context, guildID string) ([]Role, error) {
	var all []Role
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/roles", c.botAuth(), nil, &all); err != nil {
		return nil, err
	}

	roles := make([]Role, 0, len(all))
	for _, r := range all {
		if !r.Managed {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

// UserGuilds lists the guilds of the user identified by the bearer token.
func (c *Client) UserGuilds(ctx context.Context, accessToken string) ([]Guild, error) {
	var guilds []Guild
	if err := c.do(ctx, http.MethodGet, "/users/@me/guilds", bearerAuth(accessToken), nil, &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// CurrentUser fetches the profile of the user identified by the bearer token.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/@me", bearerAuth(accessToken), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GuildMember fetches a guild member. Returns ErrUnknownMember if the user is
// not in the guild.
func (c *Client) GuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	var m Member
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/members/"+userID, c.botAuth(), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AddGuildMember joins the user to the guild (if not already a member) and
// assigns the given roles in one PUT. The accessToken must be the user's
// OAuth token with the guilds.join scope; the roles assignment runs under the
// bot's permissions.
func (c *Client) AddGuildMember(ctx context.Context, guildID, userID, accessToken string, roles []string) error {
	body := struct {
		AccessToken string   `json:"access_token"`
		Roles       []string `json:"roles,omitempty"`
	}{AccessToken: accessToken, Roles: roles}

	return c.do(ctx, http.MethodPut, "/guilds/"+guildID+"/members/"+userID, c.botAuth(), body, nil)
}

// ModifyGuildMemberRoles replaces the member's role set. An empty slice
// revokes all roles.
func (c *Client) ModifyGuildMemberRoles(ctx context.Context, guildID, userID string, roles []string) error {
	body := struct {
		Roles []string `json:"roles"`
	}{Roles: roles}
	if body.Roles == nil {
		body.Roles = []string{}
	}

	return c.do(ctx, http.MethodPatch, "/guilds/"+guildID+"/members/"+userID, c.botAuth(), body, nil)
}

func (c *Client) botAuth() string {
	return "Bot " + c.botToken
}

func bearerAuth(token string) string {
	return "Bearer " + token
}

func (c *Client) do(ctx context.Context, method, path, auth string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
