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

// Metadata keys stamped onto checkout sessions for guild subscriptions.
const (
	metaTierID            = "tierId"
	metaGuildID           = "guildId"
	metaAccessToken       = "accessToken"
	metaCustomerDiscordID = "customerDiscordId"
	metaServerOwnerID     = "serverOwnerId"
)

// HandleSellerEvent verifies and applies one event from a seller's Stripe
// account. The seller must have complete Stripe keys on file and an active
// platform subscription; otherwise the event is rejected before signature
// verification is even attempted, since the secret to verify with is either
// missing or not paid for.
func (e *Engine) HandleSellerEvent(ctx context.Context, sellerID string, payload []byte, sigHeader string) (*Outcome, error) {
	cust, err := e.records.GetCustomer(ctx, sellerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSellerNotConfigured
	}
	if err != nil {
		return nil, err
	}

	creds := billing.Credentials{
		SecretKey:     cust.StripeSecretKey,
		WebhookSecret: cust.StripeWebhookSecret,
	}
	if !creds.Complete() {
		return nil, ErrSellerNotConfigured
	}
	if !cust.HasActivePlatformSubscription() {
		return nil, ErrSellerInactive
	}

	event, err := billing.ParseEvent(payload, sigHeader, creds.WebhookSecret)
	if err != nil {
		return nil, err
	}

	log := e.log.With(logger.SellerID(sellerID), logger.EventType(event.EventType()))

	switch ev := event.(type) {
	case billing.CheckoutCompleted:
		return e.activate(ctx, log, creds, ev)
	case billing.SubscriptionUpdated:
		// A canceled status and a deletion event mean the same thing
		// to access control.
		if ev.Status == "canceled" {
			return e.deactivate(ctx, log, ev.SubscriptionID)
		}
		return e.reconcileUpdate(ctx, log, ev)
	case billing.SubscriptionDeleted:
		return e.deactivate(ctx, log, ev.SubscriptionID)
	default:
		log.DebugContext(ctx, "ignoring seller event")
		return &Outcome{Action: ActionIgnored}, nil
	}
}

// activate turns a completed checkout into a guild subscription: join the
// customer to the guild with the tier's roles, then persist the record. The
// record is written first so a Discord outage cannot lose the purchase; the
// join failure is returned as an error so Stripe redelivers and the grant is
// retried against the already-converged record.
func (e *Engine) activate(ctx context.Context, log *slog.Logger, creds billing.Credentials, ev billing.CheckoutCompleted) (*Outcome, error) {
	tierID := ev.Metadata[metaTierID]
	guildID := ev.Metadata[metaGuildID]
	accessToken := ev.Metadata[metaAccessToken]
	userID := ev.Metadata[metaCustomerDiscordID]
	if tierID == "" || guildID == "" || accessToken == "" || userID == "" {
		return nil, ErrMissingMetadata
	}

	tier, err := e.records.GetTier(ctx, tierID)
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", ev.SubscriptionID, err)
	}
	if tier.GuildID != guildID {
		return nil, fmt.Errorf("activate %s: tier %s is for guild %s not %s: %w",
			ev.SubscriptionID, tierID, tier.GuildID, guildID, ErrGuildMismatch)
	}

	// Display metadata comes from Discord, not our enrollment record, so
	// a renamed guild is denormalized with its current name.
	guild, err := e.guilds.Guild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("activate %s: fetch guild: %w", ev.SubscriptionID, err)
	}

	fetcher, err := e.sellerBilling(creds)
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", ev.SubscriptionID, err)
	}
	sub, err := fetcher.RetrieveSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", ev.SubscriptionID, err)
	}

	rec := &store.UserSubscription{
		SubscriptionID:     ev.SubscriptionID,
		UserID:             userID,
		SubscriptionStatus: sub.Status,
		CustomerID:         ev.CustomerID,
		GuildID:            guildID,
		SellerID:           tier.SellerID,
		GuildName:          guild.Name,
		GuildIcon:          guild.Icon,
		TierID:             tier.ID,
		Roles:              tier.DiscordRoles,
	}
	if err := e.records.UpsertUserSubscription(ctx, rec); err != nil {
		return nil, fmt.Errorf("activate %s: %w", ev.SubscriptionID, err)
	}

	if err := e.guilds.AddGuildMember(ctx, guildID, userID, accessToken, tier.DiscordRoles); err != nil {
		return nil, fmt.Errorf("activate %s: grant roles: %w", ev.SubscriptionID, err)
	}

	log.InfoContext(ctx, "subscription activated",
		logger.SubscriptionID(ev.SubscriptionID),
		logger.GuildID(guildID),
		logger.UserID(userID),
		logger.TierID(tier.ID))
	return &Outcome{Action: ActionActivated, SubscriptionID: ev.SubscriptionID}, nil
}

// reconcileUpdate handles a non-terminal subscription update: either a plain
// status change or a switch to another tier's product.
func (e *Engine) reconcileUpdate(ctx context.Context, log *slog.Logger, ev billing.SubscriptionUpdated) (*Outcome, error) {
	rec, err := e.records.GetUserSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		// An update for a subscription we never recorded means our state
		// diverged from Stripe's; surface it instead of acking.
		return nil, fmt.Errorf("reconcile %s: %w", ev.SubscriptionID, err)
	}

	switched := ev.ProductID != "" && ev.PreviousProductID != "" && ev.PreviousProductID != ev.ProductID
	if !switched && ev.ProductID != "" {
		// previous_attributes are not always delivered; compare against
		// the tier currently on record as well.
		cur, err := e.records.GetTier(ctx, rec.TierID)
		if err == nil && cur.ProductID != ev.ProductID {
			switched = true
		}
	}

	if !switched {
		if err := e.records.SetUserSubscriptionStatus(ctx, ev.SubscriptionID, ev.Status); err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "subscription status updated",
			logger.SubscriptionID(ev.SubscriptionID),
			slog.String("status", ev.Status))
		return &Outcome{Action: ActionStatusUpdated, SubscriptionID: ev.SubscriptionID}, nil
	}

	next, err := e.records.FindTierByProduct(ctx, rec.SellerID, ev.ProductID)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", ev.SubscriptionID, err)
	}
	if next.GuildID != rec.GuildID {
		return nil, fmt.Errorf("reconcile %s: tier %s is for guild %s not %s: %w",
			ev.SubscriptionID, next.ID, next.GuildID, rec.GuildID, ErrGuildMismatch)
	}

	oldRoles := rec.Roles
	if err := e.records.UpdateUserSubscriptionTier(ctx, ev.SubscriptionID, next.ID, next.DiscordRoles, ev.Status); err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", ev.SubscriptionID, err)
	}

	out := &Outcome{Action: ActionTierChanged, SubscriptionID: ev.SubscriptionID}
	out.RoleSyncErr = e.swapMemberRoles(ctx, rec.GuildID, rec.UserID, oldRoles, next.DiscordRoles)
	if out.RoleSyncErr != nil {
		log.WarnContext(ctx, "tier changed but role sync failed",
			logger.SubscriptionID(ev.SubscriptionID),
			logger.Error(out.RoleSyncErr))
	} else {
		log.InfoContext(ctx, "subscription moved to new tier",
			logger.SubscriptionID(ev.SubscriptionID),
			logger.TierID(next.ID))
	}
	return out, nil
}

// deactivate removes a subscription record and then revokes its roles. The
// delete happens first: access must be gone from our records even when
// Discord is unreachable. A deletion with no record to reconcile is an
// error, not an ack.
func (e *Engine) deactivate(ctx context.Context, log *slog.Logger, subscriptionID string) (*Outcome, error) {
	rec, err := e.records.GetUserSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("deactivate %s: %w", subscriptionID, err)
	}

	if err := e.records.DeleteUserSubscription(ctx, subscriptionID); err != nil {
		return nil, fmt.Errorf("deactivate %s: %w", subscriptionID, err)
	}

	out := &Outcome{Action: ActionDeactivated, SubscriptionID: subscriptionID}
	out.RoleSyncErr = e.swapMemberRoles(ctx, rec.GuildID, rec.UserID, rec.Roles, nil)
	if out.RoleSyncErr != nil {
		log.WarnContext(ctx, "subscription deactivated but role revocation failed",
			logger.SubscriptionID(subscriptionID),
			logger.Error(out.RoleSyncErr))
	} else {
		log.InfoContext(ctx, "subscription deactivated",
			logger.SubscriptionID(subscriptionID),
			logger.GuildID(rec.GuildID),
			logger.UserID(rec.UserID))
	}
	return out, nil
}

// swapMemberRoles replaces one set of platform-granted roles with another on
// a guild member, leaving unrelated roles alone.
func (e *Engine) swapMemberRoles(ctx context.Context, guildID, userID string, remove, add []string) error {
	member, err := e.guilds.GuildMember(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("fetch member %s in %s: %w", userID, guildID, err)
	}
	roles := mergeRoles(member.Roles, remove, add)
	if err := e.guilds.ModifyGuildMemberRoles(ctx, guildID, userID, roles); err != nil {
		return fmt.Errorf("set roles for %s in %s: %w", userID, guildID, err)
	}
	return nil
}
