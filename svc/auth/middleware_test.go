package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/cookie"
	"github.com/guildpass/guildpass/svc/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_AttachesSession(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	sess := &auth.Session{
		ID:                  "sess_1",
		UserID:              "U1",
		TokenExpiry:         time.Now().Add(time.Hour),
		Subscribed:          true,
		SubscribedCheckedAt: time.Now(),
	}
	require.NoError(t, f.store.Save(context.Background(), sess, time.Hour))

	var seen *auth.Session
	handler := auth.Middleware(f.svc, cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetSessionFromContext(r.Context())
	}))

	set := httptest.NewRecorder()
	cookies.Set(set, "gp_session", "sess_1")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range set.Result().Cookies() {
		r.AddCookie(c)
	}

	handler.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, seen)
	assert.Equal(t, "U1", seen.UserID)
}

func TestMiddleware_AnonymousWithoutCookie(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	var seen *auth.Session
	handler := auth.Middleware(f.svc, cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetSessionFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, seen)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	auth.RequireAuth(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(auth.SetSessionToContext(r.Context(), &auth.Session{UserID: "U1"}))
	auth.RequireAuth(okHandler()).ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSubscriber(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	auth.RequireSubscriber(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(auth.SetSessionToContext(r.Context(), &auth.Session{UserID: "U1"}))
	auth.RequireSubscriber(okHandler()).ServeHTTP(w, r)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(auth.SetSessionToContext(r.Context(), &auth.Session{UserID: "U1", Subscribed: true}))
	auth.RequireSubscriber(okHandler()).ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
