package webhooks_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/modules/webhooks"
	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/store"
	"github.com/guildpass/guildpass/svc/reconcile"
)

type stubEngine struct {
	sellerID string
	sig      string
	out      *reconcile.Outcome
	err      error
}

func (s *stubEngine) HandleSellerEvent(_ context.Context, sellerID string, _ []byte, sig string) (*reconcile.Outcome, error) {
	s.sellerID = sellerID
	s.sig = sig
	return s.out, s.err
}

func (s *stubEngine) HandlePlatformEvent(_ context.Context, _ []byte, sig string) (*reconcile.Outcome, error) {
	s.sig = sig
	return s.out, s.err
}

func post(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{}`))
	r.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestSellerFeed_Acknowledges(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{out: &reconcile.Outcome{Action: reconcile.ActionActivated}}
	w := post(t, webhooks.Router(engine, nil), "/stripe?sellerId=seller_1")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "seller_1", engine.sellerID)
	assert.Equal(t, "t=1,v1=abc", engine.sig)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body["received"])
}

func TestSellerFeed_MissingSellerID(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{}
	w := post(t, webhooks.Router(engine, nil), "/stripe")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, engine.sellerID)
}

func TestSellerFeed_RoleSyncFailureStillAcknowledged(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{out: &reconcile.Outcome{
		Action:      reconcile.ActionDeactivated,
		RoleSyncErr: errors.New("discord down"),
	}}
	w := post(t, webhooks.Router(engine, nil), "/stripe?sellerId=seller_1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSellerFeed_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"bad signature", billing.ErrSignatureInvalid, http.StatusBadRequest},
		{"missing signature", billing.ErrMissingSignature, http.StatusBadRequest},
		{"malformed event", billing.ErrMalformedEvent, http.StatusBadRequest},
		{"missing metadata", reconcile.ErrMissingMetadata, http.StatusBadRequest},
		{"unconfigured seller", reconcile.ErrSellerNotConfigured, http.StatusForbidden},
		{"inactive seller", reconcile.ErrSellerInactive, http.StatusForbidden},
		{"guild mismatch", reconcile.ErrGuildMismatch, http.StatusUnprocessableEntity},
		{"missing record", fmt.Errorf("deactivate sub_1: %w", store.ErrNotFound), http.StatusNotFound},
		{"store failure", errors.New("mongo timeout"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			engine := &stubEngine{err: tc.err}
			w := post(t, webhooks.Router(engine, nil), "/stripe?sellerId=seller_1")
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestPlatformFeed(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{out: &reconcile.Outcome{Action: reconcile.ActionCustomerLinked}}
	w := post(t, webhooks.Router(engine, nil), "/platform")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t=1,v1=abc", engine.sig)

	engine.err = billing.ErrSignatureInvalid
	engine.out = nil
	w = post(t, webhooks.Router(engine, nil), "/platform")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
