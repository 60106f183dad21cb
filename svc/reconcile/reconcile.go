package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/discord"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/store"
)

var (
	// ErrSellerNotConfigured means the seller has no stored Stripe keys, so
	// their webhook feed cannot be verified or processed.
	ErrSellerNotConfigured = errors.New("seller stripe credentials not configured")

	// ErrSellerInactive means the seller's own platform subscription lapsed.
	ErrSellerInactive = errors.New("seller platform subscription not active")

	// ErrGuildMismatch means an event tried to bind a subscription to a tier
	// from a different guild. The engine refuses rather than guessing.
	ErrGuildMismatch = errors.New("tier belongs to a different guild")

	// ErrMissingMetadata means a checkout session arrived without the
	// metadata keys the engine stamped at session creation.
	ErrMissingMetadata = errors.New("checkout session missing required metadata")
)

// RecordStore is the slice of the record store the engine writes through.
type RecordStore interface {
	GetCustomer(ctx context.Context, userID string) (*store.Customer, error)
	FindCustomerByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*store.Customer, error)
	SetPlatformBilling(ctx context.Context, userID string, b store.PlatformBilling) error
	SetPlatformSubscriptionStatus(ctx context.Context, userID, status string) error
	ClearPlatformBilling(ctx context.Context, userID string) error

	GetTier(ctx context.Context, tierID string) (*store.Tier, error)
	FindTierByProduct(ctx context.Context, sellerID, productID string) (*store.Tier, error)

	GetUserSubscription(ctx context.Context, subscriptionID string) (*store.UserSubscription, error)
	UpsertUserSubscription(ctx context.Context, sub *store.UserSubscription) error
	UpdateUserSubscriptionTier(ctx context.Context, subscriptionID, tierID string, roles []string, status string) error
	SetUserSubscriptionStatus(ctx context.Context, subscriptionID, status string) error
	DeleteUserSubscription(ctx context.Context, subscriptionID string) error
}

// GuildRoster is the slice of the Discord API the engine uses to grant and
// revoke roles and to read guild display metadata.
type GuildRoster interface {
	Guild(ctx context.Context, guildID string) (*discord.Guild, error)
	GuildMember(ctx context.Context, guildID, userID string) (*discord.Member, error)
	AddGuildMember(ctx context.Context, guildID, userID, accessToken string, roles []string) error
	ModifyGuildMemberRoles(ctx context.Context, guildID, userID string, roles []string) error
}

// SubscriptionFetcher retrieves subscription state from Stripe.
type SubscriptionFetcher interface {
	RetrieveSubscription(ctx context.Context, id string) (*billing.Subscription, error)
}

// BillingFactory builds a Stripe client scoped to one seller's credentials.
// Every seller event is processed with a fresh client so one seller's key
// never leaks into another's request.
type BillingFactory func(creds billing.Credentials) (SubscriptionFetcher, error)

// Action names what the engine did with an event.
type Action string

const (
	ActionActivated       Action = "activated"
	ActionTierChanged     Action = "tier_changed"
	ActionStatusUpdated   Action = "status_updated"
	ActionDeactivated     Action = "deactivated"
	ActionCustomerLinked  Action = "customer_linked"
	ActionCustomerCleared Action = "customer_cleared"
	ActionIgnored         Action = "ignored"
)

// Outcome reports what an event changed. RoleSyncErr is set when records
// converged but the Discord role sync failed; the caller acknowledges the
// event anyway and the next reconciliation retries the roles.
type Outcome struct {
	Action         Action
	SubscriptionID string
	RoleSyncErr    error
}

// Engine applies webhook events to the record store and Discord.
type Engine struct {
	records       RecordStore
	guilds        GuildRoster
	sellerBilling BillingFactory
	platform      SubscriptionFetcher

	platformWebhookSecret string

	log *slog.Logger
}

// New assembles the engine. platformWebhookSecret signs the platform feed;
// seller feeds are verified with each seller's stored secret.
func New(
	records RecordStore,
	guilds GuildRoster,
	sellerBilling BillingFactory,
	platform SubscriptionFetcher,
	platformWebhookSecret string,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		records:               records,
		guilds:                guilds,
		sellerBilling:         sellerBilling,
		platform:              platform,
		platformWebhookSecret: platformWebhookSecret,
		log:                   log.With(logger.Component("reconcile")),
	}
}

// mergeRoles removes then adds role ids on top of a member's current set,
// preserving order and uniqueness. Roles the platform never granted are left
// untouched.
func mergeRoles(current, remove, add []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		drop[r] = struct{}{}
	}

	out := make([]string, 0, len(current)+len(add))
	seen := make(map[string]struct{}, len(current)+len(add))
	for _, r := range current {
		if _, skip := drop[r]; skip {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	for _, r := range add {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
