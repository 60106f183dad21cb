package customerapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guildpass/guildpass/core"
	"github.com/guildpass/guildpass/pkg/binder"
	"github.com/guildpass/guildpass/pkg/cookie"
	"github.com/guildpass/guildpass/store"
	"github.com/guildpass/guildpass/svc/auth"
	"github.com/guildpass/guildpass/svc/checkout"
)

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	url, err := h.auth.BeginLogin(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *handlers) callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		renderError(w, r, auth.ErrInvalidState)
		return
	}

	sess, err := h.auth.CompleteLogin(r.Context(), state, code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	h.cookies.Set(w, h.auth.CookieName(), sess.ID, cookie.WithMaxAge(h.auth.SessionTTLSeconds()))
	http.Redirect(w, r, h.loginRedirectURL, http.StatusFound)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), sess.ID); err != nil {
		renderError(w, r, err)
		return
	}
	h.cookies.Delete(w, h.auth.CookieName())
	w.WriteHeader(http.StatusNoContent)
}

// profile is the session view returned to the browser. OAuth tokens never
// leave the server.
type profile struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
	Subscribed bool   `json:"subscribed"`
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	_ = core.JSON(profile{
		UserID:     sess.UserID,
		Username:   sess.Username,
		Email:      sess.Email,
		Avatar:     sess.Avatar,
		Subscribed: sess.Subscribed,
	}).Render(w, r)
}

func (h *handlers) guildListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.checkout.GuildTiers(r.Context(), chi.URLParam(r, "guildID"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(listing).Render(w, r)
}

func (h *handlers) guildCheckout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TierID   string `json:"tierId"`
		Interval string `json:"interval"`
	}
	if err := binder.JSON(r, &in); err != nil {
		renderError(w, r, err)
		return
	}

	sess := auth.GetSessionFromContext(r.Context())
	url, err := h.checkout.CreateGuildCheckout(r.Context(), checkout.Buyer{
		UserID:      sess.UserID,
		Email:       sess.Email,
		AccessToken: sess.AccessToken,
	}, chi.URLParam(r, "guildID"), in.TierID, in.Interval)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(map[string]string{"url": url}).Render(w, r)
}

func (h *handlers) guildPortal(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	url, err := h.checkout.GuildBillingPortal(r.Context(), sess.UserID, chi.URLParam(r, "guildID"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(map[string]string{"url": url}).Render(w, r)
}

func (h *handlers) claimRoles(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	err := h.checkout.ClaimRoles(r.Context(), checkout.Buyer{
		UserID:      sess.UserID,
		Email:       sess.Email,
		AccessToken: sess.AccessToken,
	}, chi.URLParam(r, "guildID"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) subscriptions(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r.Context())
	subs, err := h.checkout.SubscribedGuilds(r.Context(), sess.UserID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	_ = core.JSON(subs).Render(w, r)
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var mapped error
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, checkout.ErrSellerUnavailable),
		errors.Is(err, checkout.ErrNoSubscription):
		mapped = core.ErrNotFound
	case errors.Is(err, checkout.ErrSelfSubscribe):
		mapped = core.ErrForbidden
	case errors.Is(err, checkout.ErrAlreadySubscribed):
		mapped = core.ErrConflict
	case errors.Is(err, checkout.ErrIntervalNotOffered):
		mapped = core.ErrUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrUnsupportedMediaType),
		errors.Is(err, binder.ErrBodyTooLarge):
		mapped = core.ErrBadRequest
	default:
		mapped = err
	}
	_ = core.JSONError(mapped).Render(w, r)
}
