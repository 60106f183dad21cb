package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/store"
)

// CreateSellerCheckout opens a platform checkout session so a seller can
// subscribe to the service. The seller's Discord id rides along as metadata
// for the platform webhook.
func (s *Service) CreateSellerCheckout(ctx context.Context, sellerID, email string) (string, error) {
	// Reuse an existing Stripe customer, preferring the one already linked
	// to the seller's record.
	customerID := ""
	cust, err := s.records.GetCustomer(ctx, sellerID)
	switch {
	case err == nil:
		if cust.HasActivePlatformSubscription() {
			return "", ErrAlreadySubscribed
		}
		customerID = cust.StripeCustomerID
	case !errors.Is(err, store.ErrNotFound):
		return "", err
	}

	if customerID == "" {
		customerID, err = s.platform.FindCustomerByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("find platform customer: %w", err)
		}
	}

	session, err := s.platform.CreateCheckoutSession(ctx, billing.CheckoutParams{
		PriceID:    s.cfg.PlatformPriceID,
		CustomerID: customerID,
		SuccessURL: s.cfg.SellerSuccessURL,
		CancelURL:  s.cfg.SellerCancelURL,
		Metadata: map[string]string{
			"discordId": sellerID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create seller checkout session: %w", err)
	}

	s.log.InfoContext(ctx, "seller checkout session created", logger.SellerID(sellerID))
	return session.URL, nil
}

// SellerBillingPortal opens the platform billing portal for a subscribed
// seller.
func (s *Service) SellerBillingPortal(ctx context.Context, sellerID string) (string, error) {
	cust, err := s.records.GetCustomer(ctx, sellerID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotLinked
	}
	if err != nil {
		return "", err
	}
	if cust.StripeCustomerID == "" {
		return "", ErrNotLinked
	}
	return s.platform.CreateBillingPortalSession(ctx, cust.StripeCustomerID, s.cfg.SellerPortalURL)
}

// SessionStatus reports the state of a platform checkout session so the
// success page can poll until the webhook lands.
func (s *Service) SessionStatus(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
	return s.platform.RetrieveCheckoutSession(ctx, sessionID)
}

// HasPlatformSubscription answers the auth layer's subscription check. The
// stored record is authoritative once the webhook has landed; before that,
// fall back to asking Stripe by email so a fresh subscriber is not locked
// out for a webhook delivery delay.
func (s *Service) HasPlatformSubscription(ctx context.Context, userID, email string) (bool, error) {
	cust, err := s.records.GetCustomer(ctx, userID)
	if err == nil && cust.HasActivePlatformSubscription() {
		return true, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	customerID, err := s.platform.FindCustomerByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("find platform customer: %w", err)
	}
	if customerID == "" {
		return false, nil
	}
	return s.platform.CustomerHasSubscription(ctx, customerID)
}
