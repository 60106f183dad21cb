package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/store"
)

// Config carries the redirect URLs Stripe sends users back to and the
// platform's subscription price.
type Config struct {
	CustomerSuccessURL string `env:"CHECKOUT_CUSTOMER_SUCCESS_URL,required"`
	CustomerCancelURL  string `env:"CHECKOUT_CUSTOMER_CANCEL_URL,required"`
	CustomerPortalURL  string `env:"CHECKOUT_CUSTOMER_PORTAL_RETURN_URL,required"`

	SellerSuccessURL string `env:"CHECKOUT_SELLER_SUCCESS_URL,required"`
	SellerCancelURL  string `env:"CHECKOUT_SELLER_CANCEL_URL,required"`
	SellerPortalURL  string `env:"CHECKOUT_SELLER_PORTAL_RETURN_URL,required"`

	PlatformPriceID string `env:"STRIPE_PLATFORM_PRICE_ID,required"`
}

// CheckoutStore is the record-store slice checkout reads.
type CheckoutStore interface {
	GetServer(ctx context.Context, guildID string) (*store.MonetizedServer, error)
	GetTier(ctx context.Context, tierID string) (*store.Tier, error)
	ListTiersByGuild(ctx context.Context, guildID string) ([]store.Tier, error)
	GetCustomer(ctx context.Context, userID string) (*store.Customer, error)
	FindUserSubscriptionByGuild(ctx context.Context, userID, guildID string) (*store.UserSubscription, error)
	ListUserSubscriptions(ctx context.Context, userID string) ([]store.UserSubscription, error)
}

// BillingClient is the Stripe surface checkout needs, satisfied by
// *billing.Client.
type BillingClient interface {
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	CustomerHasSubscription(ctx context.Context, customerID string) (bool, error)
	CreateCheckoutSession(ctx context.Context, p billing.CheckoutParams) (*billing.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*billing.CheckoutSession, error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// BillingFactory builds a Stripe client from one seller's credentials.
type BillingFactory func(creds billing.Credentials) (BillingClient, error)

// RoleGranter re-applies role grants when a customer claims them manually.
type RoleGranter interface {
	AddGuildMember(ctx context.Context, guildID, userID, accessToken string, roles []string) error
}

// Buyer identifies the logged-in user a session is created for.
type Buyer struct {
	UserID      string
	Email       string
	AccessToken string
}

// Service builds checkout and portal sessions.
type Service struct {
	cfg           Config
	records       CheckoutStore
	sellerBilling BillingFactory
	platform      BillingClient
	roster        RoleGranter
	log           *slog.Logger
}

func NewService(
	cfg Config,
	records CheckoutStore,
	sellerBilling BillingFactory,
	platform BillingClient,
	roster RoleGranter,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		cfg:           cfg,
		records:       records,
		sellerBilling: sellerBilling,
		platform:      platform,
		roster:        roster,
		log:           log.With(logger.Component("checkout")),
	}
}

// GuildListing is a guild's public storefront.
type GuildListing struct {
	Server *store.MonetizedServer `json:"server"`
	Tiers  []store.Tier           `json:"tiers"`
}

// GuildTiers returns the public storefront for a guild. Guilds whose seller
// cannot currently sell (missing keys or lapsed platform subscription) are
// reported unavailable rather than shown with dead buy buttons.
func (s *Service) GuildTiers(ctx context.Context, guildID string) (*GuildListing, error) {
	srv, err := s.records.GetServer(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sellerCreds(ctx, srv.OwnerID); err != nil {
		return nil, err
	}

	tiers, err := s.records.ListTiersByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return &GuildListing{Server: srv, Tiers: tiers}, nil
}

// CreateGuildCheckout opens a Stripe checkout session on the seller's
// account for one tier. The buyer's Discord identity and OAuth token ride
// along as metadata so the webhook can join them to the guild after payment.
func (s *Service) CreateGuildCheckout(ctx context.Context, buyer Buyer, guildID, tierID, interval string) (string, error) {
	srv, err := s.records.GetServer(ctx, guildID)
	if err != nil {
		return "", err
	}
	if buyer.UserID == srv.OwnerID {
		return "", ErrSelfSubscribe
	}

	if existing, err := s.records.FindUserSubscriptionByGuild(ctx, buyer.UserID, guildID); err == nil && existing.IsActive() {
		return "", ErrAlreadySubscribed
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	tier, err := s.records.GetTier(ctx, tierID)
	if err != nil {
		return "", err
	}
	if tier.GuildID != guildID {
		return "", fmt.Errorf("tier %s: %w", tierID, store.ErrNotFound)
	}

	priceID, err := tierPrice(tier, interval)
	if err != nil {
		return "", err
	}

	creds, err := s.sellerCreds(ctx, srv.OwnerID)
	if err != nil {
		return "", err
	}
	client, err := s.sellerBilling(creds)
	if err != nil {
		return "", err
	}

	// Reuse the Stripe customer the seller already has for this email so a
	// returning buyer sees their saved payment methods.
	customerID, err := client.FindCustomerByEmail(ctx, buyer.Email)
	if err != nil {
		return "", fmt.Errorf("find customer by email: %w", err)
	}

	session, err := client.CreateCheckoutSession(ctx, billing.CheckoutParams{
		PriceID:    priceID,
		CustomerID: customerID,
		SuccessURL: s.cfg.CustomerSuccessURL,
		CancelURL:  s.cfg.CustomerCancelURL,
		Metadata: map[string]string{
			"tierId":            tier.ID,
			"guildId":           guildID,
			"accessToken":       buyer.AccessToken,
			"customerDiscordId": buyer.UserID,
			"serverOwnerId":     srv.OwnerID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	s.log.InfoContext(ctx, "guild checkout session created",
		logger.UserID(buyer.UserID), logger.GuildID(guildID), logger.TierID(tierID))
	return session.URL, nil
}

// SubscribedGuilds lists the buyer's guild subscriptions.
func (s *Service) SubscribedGuilds(ctx context.Context, userID string) ([]store.UserSubscription, error) {
	return s.records.ListUserSubscriptions(ctx, userID)
}

// GuildBillingPortal opens the seller-account billing portal for the
// buyer's subscription to one guild.
func (s *Service) GuildBillingPortal(ctx context.Context, userID, guildID string) (string, error) {
	sub, err := s.records.FindUserSubscriptionByGuild(ctx, userID, guildID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoSubscription
	}
	if err != nil {
		return "", err
	}

	creds, err := s.sellerCreds(ctx, sub.SellerID)
	if err != nil {
		return "", err
	}
	client, err := s.sellerBilling(creds)
	if err != nil {
		return "", err
	}
	return client.CreateBillingPortalSession(ctx, sub.CustomerID, s.cfg.CustomerPortalURL)
}

// ClaimRoles re-applies the role grants of an active subscription, for the
// case where the buyer left and rejoined the guild.
func (s *Service) ClaimRoles(ctx context.Context, buyer Buyer, guildID string) error {
	sub, err := s.records.FindUserSubscriptionByGuild(ctx, buyer.UserID, guildID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoSubscription
	}
	if err != nil {
		return err
	}
	if !sub.IsActive() {
		return ErrNoSubscription
	}

	if err := s.roster.AddGuildMember(ctx, guildID, buyer.UserID, buyer.AccessToken, sub.Roles); err != nil {
		return fmt.Errorf("claim roles: %w", err)
	}

	s.log.InfoContext(ctx, "roles claimed",
		logger.UserID(buyer.UserID), logger.GuildID(guildID))
	return nil
}

// sellerCreds loads a seller's credentials and enforces the selling gate:
// complete keys plus an active platform subscription.
func (s *Service) sellerCreds(ctx context.Context, sellerID string) (billing.Credentials, error) {
	cust, err := s.records.GetCustomer(ctx, sellerID)
	if errors.Is(err, store.ErrNotFound) {
		return billing.Credentials{}, ErrSellerUnavailable
	}
	if err != nil {
		return billing.Credentials{}, err
	}

	creds := billing.Credentials{
		SecretKey:     cust.StripeSecretKey,
		WebhookSecret: cust.StripeWebhookSecret,
	}
	if !creds.Complete() || !cust.HasActivePlatformSubscription() {
		return billing.Credentials{}, ErrSellerUnavailable
	}
	return creds, nil
}

func tierPrice(tier *store.Tier, interval string) (string, error) {
	switch strings.ToLower(interval) {
	case "", "month":
		return tier.MonthlyPriceID, nil
	case "year":
		if tier.YearlyPriceID == "" {
			return "", ErrIntervalNotOffered
		}
		return tier.YearlyPriceID, nil
	default:
		return "", ErrIntervalNotOffered
	}
}
