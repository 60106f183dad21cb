// Package customerapi exposes the customer-facing API: Discord login, guild
// storefronts, checkout, and the customer's own subscription list.
package customerapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guildpass/guildpass/pkg/cookie"
	"github.com/guildpass/guildpass/svc/auth"
	"github.com/guildpass/guildpass/svc/checkout"
)

type handlers struct {
	auth     *auth.Service
	checkout *checkout.Service
	cookies  *cookie.Manager

	// loginRedirectURL is where the browser lands after the OAuth callback.
	loginRedirectURL string
}

// Router builds the customer API. Guild storefronts are public; everything
// else requires a login.
func Router(authSvc *auth.Service, checkoutSvc *checkout.Service, cookies *cookie.Manager, loginRedirectURL string) chi.Router {
	h := &handlers{
		auth:             authSvc,
		checkout:         checkoutSvc,
		cookies:          cookies,
		loginRedirectURL: loginRedirectURL,
	}

	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", h.login)
		r.Get("/callback", h.callback)
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler { return auth.RequireAuth(next) })
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)
		})
	})

	r.Route("/guilds/{guildID}", func(r chi.Router) {
		r.Get("/", h.guildListing)
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler { return auth.RequireAuth(next) })
			r.Post("/checkout", h.guildCheckout)
			r.Get("/portal", h.guildPortal)
			r.Post("/claim-roles", h.claimRoles)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return auth.RequireAuth(next) })
		r.Get("/subscriptions", h.subscriptions)
	})

	return r
}
