package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/store"
)

// metaDiscordID carries the seller's Discord user id through the platform
// checkout.
const metaDiscordID = "discordId"

// HandlePlatformEvent verifies and applies one event from the platform's own
// Stripe account, which bills sellers for using the service.
func (e *Engine) HandlePlatformEvent(ctx context.Context, payload []byte, sigHeader string) (*Outcome, error) {
	event, err := billing.ParseEvent(payload, sigHeader, e.platformWebhookSecret)
	if err != nil {
		return nil, err
	}

	log := e.log.With(logger.EventType(event.EventType()))

	switch ev := event.(type) {
	case billing.CheckoutCompleted:
		return e.linkCustomer(ctx, log, ev)
	case billing.SubscriptionUpdated:
		return e.updateCustomerStatus(ctx, log, ev.CustomerID, ev.Status)
	case billing.SubscriptionDeleted:
		return e.updateCustomerStatus(ctx, log, ev.CustomerID, "canceled")
	case billing.CustomerDeleted:
		return e.clearCustomer(ctx, log, ev.CustomerID)
	default:
		log.DebugContext(ctx, "ignoring platform event")
		return &Outcome{Action: ActionIgnored}, nil
	}
}

// linkCustomer binds a completed platform checkout to the seller's record,
// pulling live subscription state from Stripe rather than trusting the
// session snapshot.
func (e *Engine) linkCustomer(ctx context.Context, log *slog.Logger, ev billing.CheckoutCompleted) (*Outcome, error) {
	discordID := ev.Metadata[metaDiscordID]
	if discordID == "" {
		return nil, ErrMissingMetadata
	}

	sub, err := e.platform.RetrieveSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("link customer %s: %w", discordID, err)
	}

	b := store.PlatformBilling{
		StripeCustomerID:          ev.CustomerID,
		StripeSubscriptionID:      sub.ID,
		StripeSubscriptionItemID:  sub.ItemID,
		StripeSubscriptionStatus:  sub.Status,
		StripeSubscriptionPriceID: sub.PriceID,
	}
	if err := e.records.SetPlatformBilling(ctx, discordID, b); err != nil {
		return nil, fmt.Errorf("link customer %s: %w", discordID, err)
	}

	log.InfoContext(ctx, "seller linked to platform subscription",
		logger.SellerID(discordID),
		logger.SubscriptionID(sub.ID))
	return &Outcome{Action: ActionCustomerLinked, SubscriptionID: sub.ID}, nil
}

func (e *Engine) updateCustomerStatus(ctx context.Context, log *slog.Logger, stripeCustomerID, status string) (*Outcome, error) {
	cust, err := e.records.FindCustomerByStripeCustomerID(ctx, stripeCustomerID)
	if errors.Is(err, store.ErrNotFound) {
		log.WarnContext(ctx, "platform event for unknown customer",
			slog.String("stripe_customer_id", stripeCustomerID))
		return &Outcome{Action: ActionIgnored}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := e.records.SetPlatformSubscriptionStatus(ctx, cust.UserID, status); err != nil {
		return nil, fmt.Errorf("update customer %s: %w", cust.UserID, err)
	}

	log.InfoContext(ctx, "seller platform subscription status updated",
		logger.SellerID(cust.UserID),
		slog.String("status", status))
	return &Outcome{Action: ActionStatusUpdated}, nil
}

// clearCustomer blanks the seller's billing linkage after their Stripe
// customer is deleted. Their configured keys and any records under their
// guilds are untouched; they simply have to subscribe again.
func (e *Engine) clearCustomer(ctx context.Context, log *slog.Logger, stripeCustomerID string) (*Outcome, error) {
	cust, err := e.records.FindCustomerByStripeCustomerID(ctx, stripeCustomerID)
	if errors.Is(err, store.ErrNotFound) {
		return &Outcome{Action: ActionIgnored}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := e.records.ClearPlatformBilling(ctx, cust.UserID); err != nil {
		return nil, fmt.Errorf("clear customer %s: %w", cust.UserID, err)
	}

	log.InfoContext(ctx, "seller platform billing cleared", logger.SellerID(cust.UserID))
	return &Outcome{Action: ActionCustomerCleared}, nil
}
