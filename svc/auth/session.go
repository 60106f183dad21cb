package auth

import (
	"context"
	"time"
)

// Session is the authenticated state stored server-side per logged-in user.
// Discord tokens stay on the server; the client only ever holds the signed
// session id.
type Session struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`

	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenExpiry  time.Time `json:"tokenExpiry"`

	Subscribed          bool      `json:"subscribed"`
	SubscribedCheckedAt time.Time `json:"subscribedCheckedAt"`
}

// TokenExpired reports whether the Discord access token needs refreshing.
func (s *Session) TokenExpired(now time.Time) bool {
	return !s.TokenExpiry.IsZero() && now.After(s.TokenExpiry)
}

// SubscriptionStale reports whether the cached subscription answer is older
// than the recheck interval.
func (s *Session) SubscriptionStale(now time.Time, interval time.Duration) bool {
	return now.Sub(s.SubscribedCheckedAt) >= interval
}

// SessionStore persists sessions and one-shot OAuth state tokens.
type SessionStore interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error

	SaveState(ctx context.Context, state string, ttl time.Duration) error
	// ConsumeState deletes the state and reports whether it existed, so a
	// state can authorize exactly one callback.
	ConsumeState(ctx context.Context, state string) (bool, error)
}
