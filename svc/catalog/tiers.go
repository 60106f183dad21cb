package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/store"
)

// TierInput is the seller's request to create a tier. Price and product ids
// reference the seller's own Stripe catalog and are validated against it
// before anything is stored.
type TierInput struct {
	GuildID        string   `json:"guildId"`
	Nickname       string   `json:"nickname"`
	Description    string   `json:"description"`
	Benefits       []string `json:"benefits"`
	DiscordRoles   []string `json:"discordRoles"`
	ProductID      string   `json:"productId"`
	MonthlyPriceID string   `json:"monthlyPriceId"`
	YearlyPriceID  string   `json:"yearlyPriceId"`
}

// ListTiers returns the tiers configured for one of the seller's guilds.
func (s *Service) ListTiers(ctx context.Context, sellerID, guildID string) ([]store.Tier, error) {
	if _, err := s.ownedServer(ctx, sellerID, guildID); err != nil {
		return nil, err
	}
	return s.records.ListTiersByGuild(ctx, guildID)
}

// CreateTier validates the Stripe references with the seller's own key and
// stores the tier. The monthly price must be a recurring monthly price on
// the given product; the yearly price is optional but, when given, must be
// yearly, on the same product, and in the same currency.
func (s *Service) CreateTier(ctx context.Context, sellerID string, in TierInput) (*store.Tier, error) {
	if in.MonthlyPriceID == "" {
		return nil, ErrMonthlyPriceMissing
	}

	if _, err := s.ownedServer(ctx, sellerID, in.GuildID); err != nil {
		return nil, err
	}

	validator, err := s.sellerValidator(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	if _, err := validator.RetrieveProduct(ctx, in.ProductID); err != nil {
		return nil, fmt.Errorf("validate product %s: %w", in.ProductID, err)
	}

	monthly, err := validator.RetrieveRecurringPrice(ctx, in.MonthlyPriceID, in.ProductID, "month")
	if err != nil {
		return nil, fmt.Errorf("validate monthly price %s: %w", in.MonthlyPriceID, err)
	}

	tier := &store.Tier{
		SellerID:        sellerID,
		GuildID:         in.GuildID,
		Nickname:        in.Nickname,
		Description:     in.Description,
		Benefits:        in.Benefits,
		DiscordRoles:    in.DiscordRoles,
		ProductID:       in.ProductID,
		MonthlyPriceID:  monthly.ID,
		MonthlyPriceQty: float64(monthly.UnitAmount) / 100,
		Currency:        monthly.Currency,
	}

	if in.YearlyPriceID != "" {
		yearly, err := validator.RetrieveRecurringPrice(ctx, in.YearlyPriceID, in.ProductID, "year")
		if err != nil {
			return nil, fmt.Errorf("validate yearly price %s: %w", in.YearlyPriceID, err)
		}
		if yearly.Currency != monthly.Currency {
			return nil, ErrCurrencyMismatch
		}
		tier.YearlyPriceID = yearly.ID
		tier.YearlyPriceQty = float64(yearly.UnitAmount) / 100
	}

	if err := s.records.CreateTier(ctx, tier); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "tier created",
		logger.SellerID(sellerID), logger.GuildID(in.GuildID), logger.TierID(tier.ID))
	return tier, nil
}

// UpdateTier edits the presentational fields and role grants of a tier.
func (s *Service) UpdateTier(ctx context.Context, sellerID, tierID string, upd store.TierUpdate) (*store.Tier, error) {
	if err := s.records.UpdateTier(ctx, tierID, sellerID, upd); err != nil {
		return nil, err
	}
	return s.records.GetTier(ctx, tierID)
}

// DeleteTier removes a tier. Existing subscriptions to it keep running on
// Stripe until canceled; the webhook feed handles those independently.
func (s *Service) DeleteTier(ctx context.Context, sellerID, tierID string) error {
	if err := s.records.DeleteTier(ctx, tierID, sellerID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "tier deleted",
		logger.SellerID(sellerID), logger.TierID(tierID))
	return nil
}

func (s *Service) sellerValidator(ctx context.Context, sellerID string) (PriceValidator, error) {
	cust, err := s.records.GetCustomer(ctx, sellerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrKeysNotConfigured
	}
	if err != nil {
		return nil, err
	}
	if cust.StripeSecretKey == "" {
		return nil, ErrKeysNotConfigured
	}
	return s.billing(billing.Credentials{
		SecretKey:     cust.StripeSecretKey,
		WebhookSecret: cust.StripeWebhookSecret,
	})
}
