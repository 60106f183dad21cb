package auth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/discord"
	"github.com/guildpass/guildpass/svc/auth"
)

type fakeTokens struct {
	exchanged  map[string]*discord.Token
	refreshed  *discord.Token
	refreshErr error
}

func (f *fakeTokens) AuthURL(state string) string {
	return "https://discord.com/oauth2/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeTokens) Exchange(_ context.Context, code string) (*discord.Token, error) {
	tok, ok := f.exchanged[code]
	if !ok {
		return nil, errors.New("invalid code")
	}
	return tok, nil
}

func (f *fakeTokens) Refresh(_ context.Context, _ string) (*discord.Token, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

type fakeProfiles struct {
	users map[string]*discord.User
}

func (f *fakeProfiles) CurrentUser(_ context.Context, accessToken string) (*discord.User, error) {
	u, ok := f.users[accessToken]
	if !ok {
		return nil, discord.ErrUnauthorized
	}
	return u, nil
}

type fakeVerifier struct {
	subscribed bool
	err        error
	calls      int
}

func (f *fakeVerifier) HasPlatformSubscription(_ context.Context, _, _ string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.subscribed, nil
}

type authFixture struct {
	store    *auth.MemorySessionStore
	tokens   *fakeTokens
	verifier *fakeVerifier
	svc      *auth.Service
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := auth.NewMemorySessionStore()
	tokens := &fakeTokens{
		exchanged: map[string]*discord.Token{
			"code_1": {AccessToken: "at_1", RefreshToken: "rt_1", Expiry: time.Now().Add(time.Hour)},
		},
	}
	profiles := &fakeProfiles{
		users: map[string]*discord.User{
			"at_1": {ID: "U1", Username: "tester", Email: "tester@example.com", Avatar: "av"},
			"at_2": {ID: "U1", Username: "tester", Email: "tester@example.com", Avatar: "av"},
		},
	}
	verifier := &fakeVerifier{subscribed: true}

	cfg := auth.Config{
		SessionTTL:      time.Hour,
		StateTTL:        10 * time.Minute,
		RecheckInterval: 24 * time.Hour,
		CookieName:      "gp_session",
	}
	return &authFixture{
		store:    store,
		tokens:   tokens,
		verifier: verifier,
		svc:      auth.NewService(cfg, store, tokens, profiles, verifier, nil),
	}
}

func stateFromURL(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()

	authURL, err := f.svc.BeginLogin(ctx)
	require.NoError(t, err)
	state := stateFromURL(t, authURL)
	require.NotEmpty(t, state)

	sess, err := f.svc.CompleteLogin(ctx, state, "code_1")
	require.NoError(t, err)
	assert.Equal(t, "U1", sess.UserID)
	assert.Equal(t, "tester", sess.Username)
	assert.Equal(t, "at_1", sess.AccessToken)
	assert.True(t, sess.Subscribed)
	assert.Equal(t, 1, f.verifier.calls)

	got, err := f.svc.Authenticate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	// Fresh token and fresh subscription answer, so no extra verifier call.
	assert.Equal(t, 1, f.verifier.calls)
}

func TestCompleteLogin_StateIsSingleUse(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()

	authURL, err := f.svc.BeginLogin(ctx)
	require.NoError(t, err)
	state := stateFromURL(t, authURL)

	_, err = f.svc.CompleteLogin(ctx, state, "code_1")
	require.NoError(t, err)

	_, err = f.svc.CompleteLogin(ctx, state, "code_1")
	assert.ErrorIs(t, err, auth.ErrInvalidState)
}

func TestCompleteLogin_UnknownState(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	_, err := f.svc.CompleteLogin(context.Background(), "forged", "code_1")
	assert.ErrorIs(t, err, auth.ErrInvalidState)
}

func TestAuthenticate_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	f.tokens.refreshed = &discord.Token{AccessToken: "at_2", RefreshToken: "rt_2", Expiry: time.Now().Add(time.Hour)}

	sess := &auth.Session{
		ID:                  "sess_1",
		UserID:              "U1",
		AccessToken:         "at_1",
		RefreshToken:        "rt_1",
		TokenExpiry:         time.Now().Add(-time.Minute),
		Subscribed:          true,
		SubscribedCheckedAt: time.Now(),
	}
	require.NoError(t, f.store.Save(ctx, sess, time.Hour))

	got, err := f.svc.Authenticate(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "at_2", got.AccessToken)
	assert.Equal(t, "rt_2", got.RefreshToken)

	// Persisted, not just returned.
	stored, err := f.store.Get(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "at_2", stored.AccessToken)
}

func TestAuthenticate_RefreshFailureDropsSession(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	f.tokens.refreshErr = errors.New("invalid_grant")

	sess := &auth.Session{
		ID:           "sess_1",
		UserID:       "U1",
		RefreshToken: "rt_1",
		TokenExpiry:  time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.store.Save(ctx, sess, time.Hour))

	_, err := f.svc.Authenticate(ctx, "sess_1")
	require.ErrorIs(t, err, auth.ErrTokenRefresh)

	_, err = f.store.Get(ctx, "sess_1")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestAuthenticate_RechecksStaleSubscription(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifier.subscribed = false

	sess := &auth.Session{
		ID:                  "sess_1",
		UserID:              "U1",
		TokenExpiry:         time.Now().Add(time.Hour),
		Subscribed:          true,
		SubscribedCheckedAt: time.Now().Add(-25 * time.Hour),
	}
	require.NoError(t, f.store.Save(ctx, sess, time.Hour))

	got, err := f.svc.Authenticate(ctx, "sess_1")
	require.NoError(t, err)
	assert.False(t, got.Subscribed)
	assert.Equal(t, 1, f.verifier.calls)
}

func TestAuthenticate_VerifierErrorKeepsPreviousAnswer(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifier.err = errors.New("stripe down")

	sess := &auth.Session{
		ID:                  "sess_1",
		UserID:              "U1",
		TokenExpiry:         time.Now().Add(time.Hour),
		Subscribed:          true,
		SubscribedCheckedAt: time.Now().Add(-25 * time.Hour),
	}
	require.NoError(t, f.store.Save(ctx, sess, time.Hour))

	got, err := f.svc.Authenticate(ctx, "sess_1")
	require.NoError(t, err)
	assert.True(t, got.Subscribed)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()

	sess := &auth.Session{ID: "sess_1", UserID: "U1", TokenExpiry: time.Now().Add(time.Hour)}
	require.NoError(t, f.store.Save(ctx, sess, time.Hour))

	require.NoError(t, f.svc.Logout(ctx, "sess_1"))
	_, err := f.svc.Authenticate(ctx, "sess_1")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}
