// Package sellerapi exposes the seller dashboard API: server enrollment,
// tier management, Stripe key settings, and the seller's own platform
// billing.
package sellerapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guildpass/guildpass/svc/auth"
	"github.com/guildpass/guildpass/svc/catalog"
	"github.com/guildpass/guildpass/svc/checkout"
)

type handlers struct {
	catalog  *catalog.Service
	checkout *checkout.Service
	auth     *auth.Service
}

// Router builds the seller API. Everything requires a login; catalog
// management additionally requires an active platform subscription, while
// the billing endpoints stay open so a seller can become (or resume being)
// a subscriber.
func Router(catalogSvc *catalog.Service, checkoutSvc *checkout.Service, authSvc *auth.Service) chi.Router {
	h := &handlers{catalog: catalogSvc, checkout: checkoutSvc, auth: authSvc}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return auth.RequireAuth(next) })

	r.Route("/billing", func(r chi.Router) {
		r.Post("/checkout", h.createCheckout)
		r.Get("/checkout/{sessionID}", h.checkoutStatus)
		r.Get("/portal", h.billingPortal)
	})

	r.Get("/settings", h.getSettings)
	r.Put("/settings/stripe-keys", h.updateStripeKeys)

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return auth.RequireSubscriber(next) })

		r.Route("/servers", func(r chi.Router) {
			r.Get("/", h.listServers)
			r.Get("/available", h.availableServers)
			r.Post("/", h.addServer)
			r.Route("/{guildID}", func(r chi.Router) {
				r.Delete("/", h.removeServer)
				r.Post("/bot-check", h.refreshBotPresence)
				r.Get("/roles", h.guildRoles)
				r.Get("/tiers", h.listTiers)
			})
		})

		r.Route("/tiers", func(r chi.Router) {
			r.Post("/", h.createTier)
			r.Patch("/{tierID}", h.updateTier)
			r.Delete("/{tierID}", h.deleteTier)
		})
	})

	return r
}
