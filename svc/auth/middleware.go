package auth

import (
	"net/http"

	"github.com/guildpass/guildpass/core"
	"github.com/guildpass/guildpass/pkg/cookie"
)

// Middleware resolves the session cookie on every request and, when valid,
// attaches the session to the request context. Requests without a valid
// session pass through unauthenticated; enforcement belongs to RequireAuth
// and RequireSubscriber.
func Middleware(svc *Service, cookies *cookie.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := cookies.Get(r, svc.CookieName())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := svc.Authenticate(r.Context(), sessionID)
			if err != nil {
				// Stale or forged session; clear the cookie and continue
				// anonymously.
				cookies.Delete(w, svc.CookieName())
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetSessionToContext(r.Context(), sess)))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSessionFromContext(r.Context()) == nil {
			_ = core.JSONError(core.ErrUnauthorized).Render(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSubscriber rejects authenticated users whose platform subscription
// is not active with 402. Unauthenticated requests get 401.
func RequireSubscriber(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		if sess == nil {
			_ = core.JSONError(core.ErrUnauthorized).Render(w, r)
			return
		}
		if !sess.Subscribed {
			_ = core.JSONError(core.ErrPaymentRequired).Render(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
