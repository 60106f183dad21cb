package sellerapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guildpass/guildpass/core"
	"github.com/guildpass/guildpass/pkg/binder"
	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/store"
	"github.com/guildpass/guildpass/svc/auth"
	"github.com/guildpass/guildpass/svc/catalog"
	"github.com/guildpass/guildpass/svc/checkout"
)

func (h *handlers) listServers(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	servers, err := h.catalog.ListServers(r.Context(), sess.UserID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(servers).Render(w, r)
}

func (h *handlers) availableServers(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	guilds, err := h.catalog.AvailableServers(r.Context(), sess.UserID, sess.AccessToken)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(guilds).Render(w, r)
}

func (h *handlers) addServer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		GuildID string `json:"guildId"`
	}
	if err := binder.JSON(r, &in); err != nil {
		renderError(w, r, err)
		return
	}

	sess := auth.GetSessionFromContext(r.Context())
	srv, err := h.catalog.AddServer(r.Context(), sess.UserID, sess.AccessToken, in.GuildID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSONStatus(http.StatusCreated, core.JSONResponse{Data: srv}).Render(w, r)
}

func (h *handlers) removeServer(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	if err := h.catalog.RemoveServer(r.Context(), sess.UserID, chi.URLParam(r, "guildID")); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) refreshBotPresence(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	present, err := h.catalog.RefreshBotPresence(r.Context(), sess.UserID, chi.URLParam(r, "guildID"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(map[string]bool{"botIsInServer": present}).Render(w, r)
}

func (h *handlers) guildRoles(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	roles, err := h.catalog.Roles(r.Context(), sess.UserID, chi.URLParam(r, "guildID"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(roles).Render(w, r)
}

func (h *handlers) listTiers(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	tiers, err := h.catalog.ListTiers(r.Context(), sess.UserID, chi.URLParam(r, "guildID"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(tiers).Render(w, r)
}

func (h *handlers) createTier(w http.ResponseWriter, r *http.Request) {
	var in catalog.TierInput
	if err := binder.JSON(r, &in); err != nil {
		renderError(w, r, err)
		return
	}

	sess := auth.GetSessionFromContext(r.Context())
	tier, err := h.catalog.CreateTier(r.Context(), sess.UserID, in)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSONStatus(http.StatusCreated, core.JSONResponse{Data: tier}).Render(w, r)
}

func (h *handlers) updateTier(w http.ResponseWriter, r *http.Request) {
	var upd store.TierUpdate
	if err := binder.JSON(r, &upd); err != nil {
		renderError(w, r, err)
		return
	}

	sess := auth.GetSessionFromContext(r.Context())
	tier, err := h.catalog.UpdateTier(r.Context(), sess.UserID, chi.URLParam(r, "tierID"), upd)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(tier).Render(w, r)
}

func (h *handlers) deleteTier(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	if err := h.catalog.DeleteTier(r.Context(), sess.UserID, chi.URLParam(r, "tierID")); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	settings, err := h.catalog.Settings(r.Context(), sess.UserID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(settings).Render(w, r)
}

func (h *handlers) updateStripeKeys(w http.ResponseWriter, r *http.Request) {
	var keys store.StripeKeys
	if err := binder.JSON(r, &keys); err != nil {
		renderError(w, r, err)
		return
	}

	sess := auth.GetSessionFromContext(r.Context())
	if err := h.catalog.UpdateStripeKeys(r.Context(), sess.UserID, keys); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) createCheckout(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	url, err := h.checkout.CreateSellerCheckout(r.Context(), sess.UserID, sess.Email)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(map[string]string{"url": url}).Render(w, r)
}

func (h *handlers) checkoutStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkout.SessionStatus(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	// A paid session refreshes the cached subscriber flag immediately so
	// the dashboard unlocks without waiting for the webhook or the 24h
	// recheck.
	if session.PaymentStatus == "paid" {
		sess := auth.GetSessionFromContext(r.Context())
		_ = h.auth.MarkSubscribed(r.Context(), sess.ID, true)
	}

	_ = core.JSON(session).Render(w, r)
}

func (h *handlers) billingPortal(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	url, err := h.checkout.SellerBillingPortal(r.Context(), sess.UserID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(map[string]string{"url": url}).Render(w, r)
}

// renderError maps service sentinels onto HTTP error responses.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var mapped error
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, checkout.ErrNotLinked):
		mapped = core.ErrNotFound
	case errors.Is(err, store.ErrNotOwner), errors.Is(err, catalog.ErrNotGuildOwner):
		mapped = core.ErrForbidden
	case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, checkout.ErrAlreadySubscribed),
		errors.Is(err, catalog.ErrBotMissing):
		mapped = core.ErrConflict
	case errors.Is(err, store.ErrServerLimitReached),
		errors.Is(err, catalog.ErrKeysNotConfigured),
		errors.Is(err, catalog.ErrCurrencyMismatch),
		errors.Is(err, catalog.ErrMonthlyPriceMissing),
		errors.Is(err, billing.ErrPriceProductMismatch),
		errors.Is(err, billing.ErrNotRecurring):
		mapped = core.ErrUnprocessableEntity
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrUnsupportedMediaType),
		errors.Is(err, binder.ErrBodyTooLarge):
		mapped = core.ErrBadRequest
	default:
		mapped = err
	}
	_ = core.JSONError(mapped).Render(w, r)
}
