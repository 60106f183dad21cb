// Package webhooks receives Stripe event feeds and hands them to the
// reconciliation engine. Responses follow Stripe's retry contract: 2xx
// acknowledges the event, anything else asks for redelivery.
package webhooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guildpass/guildpass/core"
	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/store"
	"github.com/guildpass/guildpass/svc/reconcile"
)

// maxPayloadSize caps webhook bodies well above Stripe's largest events.
const maxPayloadSize = 1 << 20

// Engine is the reconciliation surface the webhook endpoints drive.
type Engine interface {
	HandleSellerEvent(ctx context.Context, sellerID string, payload []byte, sigHeader string) (*reconcile.Outcome, error)
	HandlePlatformEvent(ctx context.Context, payload []byte, sigHeader string) (*reconcile.Outcome, error)
}

type handlers struct {
	engine Engine
	log    *slog.Logger
}

// Router builds the webhook endpoints. The seller feed is addressed by
// sellerId query parameter because every seller points their Stripe webhook
// at the same URL.
func Router(engine Engine, log *slog.Logger) chi.Router {
	if log == nil {
		log = logger.Discard()
	}
	h := &handlers{engine: engine, log: log.With(logger.Component("webhooks"))}

	r := chi.NewRouter()
	r.Post("/stripe", h.sellerFeed)
	r.Post("/platform", h.platformFeed)
	return r
}

func (h *handlers) sellerFeed(w http.ResponseWriter, r *http.Request) {
	sellerID := r.URL.Query().Get("sellerId")
	if sellerID == "" {
		core.WriteJSON(w, http.StatusBadRequest, core.JSONResponse{
			Error: &core.ErrorDetail{Code: "missing_seller_id"},
		})
		return
	}

	payload, sig, ok := h.readEvent(w, r)
	if !ok {
		return
	}

	out, err := h.engine.HandleSellerEvent(r.Context(), sellerID, payload, sig)
	h.respond(w, r, out, err)
}

func (h *handlers) platformFeed(w http.ResponseWriter, r *http.Request) {
	payload, sig, ok := h.readEvent(w, r)
	if !ok {
		return
	}

	out, err := h.engine.HandlePlatformEvent(r.Context(), payload, sig)
	h.respond(w, r, out, err)
}

func (h *handlers) readEvent(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		core.WriteJSON(w, http.StatusBadRequest, core.JSONResponse{
			Error: &core.ErrorDetail{Code: "unreadable_payload"},
		})
		return nil, "", false
	}
	return payload, r.Header.Get("Stripe-Signature"), true
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request, out *reconcile.Outcome, err error) {
	if err != nil {
		status, code := webhookStatus(err)
		h.log.ErrorContext(r.Context(), "webhook rejected",
			slog.Int("status", status), logger.Error(err))
		core.WriteJSON(w, status, core.JSONResponse{Error: &core.ErrorDetail{Code: code}})
		return
	}

	// A failed role sync is still an acknowledged event; Stripe redelivery
	// would not fix Discord.
	if out.RoleSyncErr != nil {
		h.log.WarnContext(r.Context(), "event acknowledged with failed role sync",
			logger.SubscriptionID(out.SubscriptionID), logger.Error(out.RoleSyncErr))
	}
	core.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func webhookStatus(err error) (int, string) {
	switch {
	case errors.Is(err, billing.ErrMissingSignature),
		errors.Is(err, billing.ErrSignatureInvalid):
		return http.StatusBadRequest, "invalid_signature"
	case errors.Is(err, billing.ErrMalformedEvent),
		errors.Is(err, reconcile.ErrMissingMetadata):
		return http.StatusBadRequest, "malformed_event"
	case errors.Is(err, reconcile.ErrSellerNotConfigured),
		errors.Is(err, reconcile.ErrSellerInactive):
		return http.StatusForbidden, "seller_not_eligible"
	case errors.Is(err, reconcile.ErrGuildMismatch):
		return http.StatusUnprocessableEntity, "guild_mismatch"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "record_not_found"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}
