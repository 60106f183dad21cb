package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/guildpass/guildpass/pkg/discord"
	"github.com/guildpass/guildpass/pkg/logger"
)

// Config tunes session lifetimes.
type Config struct {
	SessionTTL      time.Duration `env:"AUTH_SESSION_TTL" envDefault:"720h"`
	StateTTL        time.Duration `env:"AUTH_STATE_TTL" envDefault:"10m"`
	RecheckInterval time.Duration `env:"AUTH_SUBSCRIPTION_RECHECK" envDefault:"24h"`
	CookieName      string        `env:"AUTH_COOKIE_NAME" envDefault:"gp_session"`
}

// TokenSource is the OAuth slice of the Discord integration.
type TokenSource interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*discord.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*discord.Token, error)
}

// ProfileSource fetches the Discord profile behind an access token.
type ProfileSource interface {
	CurrentUser(ctx context.Context, accessToken string) (*discord.User, error)
}

// SubscriptionVerifier answers whether a user currently holds an active
// platform subscription. The answer is cached on the session.
type SubscriptionVerifier interface {
	HasPlatformSubscription(ctx context.Context, userID, email string) (bool, error)
}

// Service runs the Discord OAuth flow and manages sessions.
type Service struct {
	cfg      Config
	sessions SessionStore
	oauth    TokenSource
	profiles ProfileSource
	verifier SubscriptionVerifier
	log      *slog.Logger
}

func NewService(
	cfg Config,
	sessions SessionStore,
	oauth TokenSource,
	profiles ProfileSource,
	verifier SubscriptionVerifier,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		cfg:      cfg,
		sessions: sessions,
		oauth:    oauth,
		profiles: profiles,
		verifier: verifier,
		log:      log.With(logger.Component("auth")),
	}
}

// CookieName is the name of the session cookie the transport layer uses.
func (s *Service) CookieName() string { return s.cfg.CookieName }

// SessionTTLSeconds is the cookie max-age matching the server-side TTL.
func (s *Service) SessionTTLSeconds() int { return int(s.cfg.SessionTTL / time.Second) }

// BeginLogin issues a one-shot state token and returns the Discord consent
// URL to redirect the user to.
func (s *Service) BeginLogin(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.sessions.SaveState(ctx, state, s.cfg.StateTTL); err != nil {
		return "", err
	}
	return s.oauth.AuthURL(state), nil
}

// CompleteLogin validates the callback, exchanges the code, loads the
// Discord profile, and opens a session. The subscription check runs once
// here and is then cached for RecheckInterval.
func (s *Service) CompleteLogin(ctx context.Context, state, code string) (*Session, error) {
	ok, err := s.sessions.ConsumeState(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange oauth code: %w", err)
	}

	user, err := s.profiles.CurrentUser(ctx, tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("load discord profile: %w", err)
	}

	sess := &Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Avatar:       user.Avatar,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry,
	}
	s.refreshSubscription(ctx, sess)

	if err := s.sessions.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user logged in", logger.UserID(user.ID))
	return sess, nil
}

// Authenticate loads a session, transparently refreshing the Discord token
// when expired and the cached subscription answer when stale. A failed token
// refresh invalidates the session so the user signs in again.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	dirty := false
	now := time.Now()

	if sess.TokenExpired(now) {
		tok, err := s.oauth.Refresh(ctx, sess.RefreshToken)
		if err != nil {
			if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
				s.log.WarnContext(ctx, "failed to drop session after refresh failure",
					logger.Error(delErr))
			}
			return nil, fmt.Errorf("%w: %w", ErrTokenRefresh, err)
		}
		sess.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			sess.RefreshToken = tok.RefreshToken
		}
		sess.TokenExpiry = tok.Expiry
		dirty = true
	}

	if sess.SubscriptionStale(now, s.cfg.RecheckInterval) {
		s.refreshSubscription(ctx, sess)
		dirty = true
	}

	if dirty {
		if err := s.sessions.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// Logout drops the session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// MarkSubscribed force-refreshes the cached subscription answer, used right
// after a seller completes platform checkout.
func (s *Service) MarkSubscribed(ctx context.Context, sessionID string, subscribed bool) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.Subscribed = subscribed
	sess.SubscribedCheckedAt = time.Now()
	return s.sessions.Save(ctx, sess, s.cfg.SessionTTL)
}

// refreshSubscription updates the cached answer in place. A verifier error
// keeps the previous answer rather than logging the user out.
func (s *Service) refreshSubscription(ctx context.Context, sess *Session) {
	subscribed, err := s.verifier.HasPlatformSubscription(ctx, sess.UserID, sess.Email)
	if err != nil {
		s.log.WarnContext(ctx, "subscription check failed",
			logger.UserID(sess.UserID), logger.Error(err))
		return
	}
	sess.Subscribed = subscribed
	sess.SubscribedCheckedAt = time.Now()
}
