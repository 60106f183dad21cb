package discord

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Endpoint is Discord's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// Token is the subset of OAuth2 token state a session carries.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// OAuth handles the Discord authorization-code flow and token refresh.
type OAuth struct {
	conf *oauth2.Config
}

// NewOAuth creates an OAuth helper from application credentials.
func NewOAuth(cfg OAuthConfig) *OAuth {
	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     Endpoint,
		},
	}
}

// AuthURL builds the authorization URL carrying the CSRF state token.
func (o *OAuth) AuthURL(state string) string {
	return o.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens.
func (o *OAuth) Exchange(ctx context.Context, code string) (*Token, error) {
	tok, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return fromOAuth2(tok), nil
}

// Refresh renews an expired access token. Discord may rotate the refresh
// token; the returned Token carries whichever one is current.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	src := o.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}

	out := fromOAuth2(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

func fromOAuth2(tok *oauth2.Token) *Token {
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}
