package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/discord"
	"github.com/guildpass/guildpass/pkg/logger"
	"github.com/guildpass/guildpass/store"
)

// CatalogStore is the record-store slice the catalog writes through.
type CatalogStore interface {
	GetServer(ctx context.Context, guildID string) (*store.MonetizedServer, error)
	ListServersByOwner(ctx context.Context, ownerID string) ([]store.MonetizedServer, error)
	CreateServer(ctx context.Context, srv *store.MonetizedServer) error
	SetBotPresence(ctx context.Context, guildID string, present bool) error
	DeleteServerCascade(ctx context.Context, guildID, ownerID string) error

	GetTier(ctx context.Context, tierID string) (*store.Tier, error)
	ListTiersByGuild(ctx context.Context, guildID string) ([]store.Tier, error)
	CreateTier(ctx context.Context, t *store.Tier) error
	UpdateTier(ctx context.Context, tierID, sellerID string, upd store.TierUpdate) error
	DeleteTier(ctx context.Context, tierID, sellerID string) error

	GetCustomer(ctx context.Context, userID string) (*store.Customer, error)
	SetStripeKeys(ctx context.Context, userID string, keys store.StripeKeys) error
}

// GuildDirectory is the Discord slice the catalog reads from.
type GuildDirectory interface {
	Guild(ctx context.Context, guildID string) (*discord.Guild, error)
	GuildRoles(ctx context.Context, guildID string) ([]discord.Role, error)
	UserGuilds(ctx context.Context, accessToken string) ([]discord.Guild, error)
}

// PriceValidator checks seller-provided Stripe catalog references.
type PriceValidator interface {
	RetrieveProduct(ctx context.Context, productID string) (string, error)
	RetrieveRecurringPrice(ctx context.Context, priceID, productID, interval string) (*billing.Price, error)
}

// BillingFactory builds a price validator scoped to one seller's key.
type BillingFactory func(creds billing.Credentials) (PriceValidator, error)

// Service implements seller catalog management.
type Service struct {
	records CatalogStore
	guilds  GuildDirectory
	billing BillingFactory
	log     *slog.Logger
}

func NewService(records CatalogStore, guilds GuildDirectory, billing BillingFactory, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		records: records,
		guilds:  guilds,
		billing: billing,
		log:     log.With(logger.Component("catalog")),
	}
}

// ListServers returns the seller's monetized guilds.
func (s *Service) ListServers(ctx context.Context, sellerID string) ([]store.MonetizedServer, error) {
	return s.records.ListServersByOwner(ctx, sellerID)
}

// AvailableServers returns guilds the user owns on Discord that are not yet
// monetized, as candidates for enrollment.
func (s *Service) AvailableServers(ctx context.Context, sellerID, accessToken string) ([]discord.Guild, error) {
	guilds, err := s.guilds.UserGuilds(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("list user guilds: %w", err)
	}

	enrolled, err := s.records.ListServersByOwner(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(enrolled))
	for _, srv := range enrolled {
		taken[srv.ID] = struct{}{}
	}

	out := make([]discord.Guild, 0, len(guilds))
	for _, g := range guilds {
		if !g.Owner {
			continue
		}
		if _, ok := taken[g.ID]; ok {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// AddServer enrolls a guild the user owns. The bot must already be a member:
// without it no role can ever be granted, so enrollment is refused until the
// seller invites it.
func (s *Service) AddServer(ctx context.Context, sellerID, accessToken, guildID string) (*store.MonetizedServer, error) {
	guilds, err := s.guilds.UserGuilds(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("list user guilds: %w", err)
	}

	var owned *discord.Guild
	for i := range guilds {
		if guilds[i].ID == guildID && guilds[i].Owner {
			owned = &guilds[i]
			break
		}
	}
	if owned == nil {
		return nil, ErrNotGuildOwner
	}

	if _, err := s.guilds.Guild(ctx, guildID); err != nil {
		if errors.Is(err, discord.ErrUnknownGuild) {
			return nil, ErrBotMissing
		}
		return nil, fmt.Errorf("check bot presence: %w", err)
	}

	srv := &store.MonetizedServer{
		ID:            guildID,
		Name:          owned.Name,
		Icon:          owned.Icon,
		OwnerID:       sellerID,
		BotIsInServer: true,
	}
	if err := s.records.CreateServer(ctx, srv); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "server enrolled",
		logger.SellerID(sellerID), logger.GuildID(guildID))
	return srv, nil
}

// RefreshBotPresence re-checks whether the bot joined the guild since
// enrollment and persists the answer.
func (s *Service) RefreshBotPresence(ctx context.Context, sellerID, guildID string) (bool, error) {
	if _, err := s.ownedServer(ctx, sellerID, guildID); err != nil {
		return false, err
	}

	present := true
	if _, err := s.guilds.Guild(ctx, guildID); err != nil {
		if !errors.Is(err, discord.ErrUnknownGuild) {
			return false, fmt.Errorf("check bot presence: %w", err)
		}
		present = false
	}
	if err := s.records.SetBotPresence(ctx, guildID, present); err != nil {
		return false, err
	}
	return present, nil
}

// RemoveServer unenrolls a guild and deletes its tiers.
func (s *Service) RemoveServer(ctx context.Context, sellerID, guildID string) error {
	if err := s.records.DeleteServerCascade(ctx, guildID, sellerID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "server removed",
		logger.SellerID(sellerID), logger.GuildID(guildID))
	return nil
}

// Roles lists the guild's assignable roles for tier configuration. Managed
// roles (bot and integration roles) are already filtered out by the Discord
// client.
func (s *Service) Roles(ctx context.Context, sellerID, guildID string) ([]discord.Role, error) {
	if _, err := s.ownedServer(ctx, sellerID, guildID); err != nil {
		return nil, err
	}
	roles, err := s.guilds.GuildRoles(ctx, guildID)
	if errors.Is(err, discord.ErrUnknownGuild) {
		return nil, ErrBotMissing
	}
	if err != nil {
		return nil, fmt.Errorf("list guild roles: %w", err)
	}
	return roles, nil
}

// Settings returns the seller's billing record with the secret values
// blanked; the UI only needs to know whether they are set.
func (s *Service) Settings(ctx context.Context, sellerID string) (*store.Customer, error) {
	cust, err := s.records.GetCustomer(ctx, sellerID)
	if errors.Is(err, store.ErrNotFound) {
		return &store.Customer{UserID: sellerID}, nil
	}
	if err != nil {
		return nil, err
	}

	if cust.StripeSecretKey != "" {
		cust.StripeSecretKey = maskKey(cust.StripeSecretKey)
	}
	if cust.StripeWebhookSecret != "" {
		cust.StripeWebhookSecret = maskKey(cust.StripeWebhookSecret)
	}
	return cust, nil
}

// UpdateStripeKeys stores the seller's Stripe credentials.
func (s *Service) UpdateStripeKeys(ctx context.Context, sellerID string, keys store.StripeKeys) error {
	if err := s.records.SetStripeKeys(ctx, sellerID, keys); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "stripe keys updated", logger.SellerID(sellerID))
	return nil
}

func (s *Service) ownedServer(ctx context.Context, sellerID, guildID string) (*store.MonetizedServer, error) {
	srv, err := s.records.GetServer(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if srv.OwnerID != sellerID {
		return nil, store.ErrNotOwner
	}
	return srv, nil
}

// maskKey keeps the last four characters visible.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
