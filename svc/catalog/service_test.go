package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/pkg/discord"
	"github.com/guildpass/guildpass/store"
	"github.com/guildpass/guildpass/svc/catalog"
)

const sellerID = "seller_1"

type fakeCatalogStore struct {
	servers   map[string]*store.MonetizedServer
	tiers     map[string]*store.Tier
	customers map[string]*store.Customer
	nextTier  int
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		servers:   map[string]*store.MonetizedServer{},
		tiers:     map[string]*store.Tier{},
		customers: map[string]*store.Customer{},
	}
}

func (f *fakeCatalogStore) GetServer(_ context.Context, guildID string) (*store.MonetizedServer, error) {
	s, ok := f.servers[guildID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeCatalogStore) ListServersByOwner(_ context.Context, ownerID string) ([]store.MonetizedServer, error) {
	var out []store.MonetizedServer
	for _, s := range f.servers {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) CreateServer(_ context.Context, srv *store.MonetizedServer) error {
	if _, ok := f.servers[srv.ID]; ok {
		return store.ErrAlreadyExists
	}
	owned := 0
	for _, s := range f.servers {
		if s.OwnerID == srv.OwnerID {
			owned++
		}
	}
	if owned >= 10 {
		return store.ErrServerLimitReached
	}
	cp := *srv
	f.servers[srv.ID] = &cp
	return nil
}

func (f *fakeCatalogStore) SetBotPresence(_ context.Context, guildID string, present bool) error {
	s, ok := f.servers[guildID]
	if !ok {
		return store.ErrNotFound
	}
	s.BotIsInServer = present
	return nil
}

func (f *fakeCatalogStore) DeleteServerCascade(_ context.Context, guildID, ownerID string) error {
	s, ok := f.servers[guildID]
	if !ok {
		return store.ErrNotFound
	}
	if s.OwnerID != ownerID {
		return store.ErrNotOwner
	}
	delete(f.servers, guildID)
	for id, t := range f.tiers {
		if t.GuildID == guildID {
			delete(f.tiers, id)
		}
	}
	return nil
}

func (f *fakeCatalogStore) GetTier(_ context.Context, tierID string) (*store.Tier, error) {
	t, ok := f.tiers[tierID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeCatalogStore) ListTiersByGuild(_ context.Context, guildID string) ([]store.Tier, error) {
	var out []store.Tier
	for _, t := range f.tiers {
		if t.GuildID == guildID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) CreateTier(_ context.Context, t *store.Tier) error {
	if t.ID == "" {
		f.nextTier++
		t.ID = string(rune('A' + f.nextTier))
	}
	cp := *t
	f.tiers[t.ID] = &cp
	return nil
}

func (f *fakeCatalogStore) UpdateTier(_ context.Context, tierID, sellerID string, upd store.TierUpdate) error {
	t, ok := f.tiers[tierID]
	if !ok {
		return store.ErrNotFound
	}
	if t.SellerID != sellerID {
		return store.ErrNotOwner
	}
	t.Nickname = upd.Nickname
	t.Description = upd.Description
	t.Benefits = upd.Benefits
	t.DiscordRoles = upd.DiscordRoles
	return nil
}

func (f *fakeCatalogStore) DeleteTier(_ context.Context, tierID, sellerID string) error {
	t, ok := f.tiers[tierID]
	if !ok {
		return store.ErrNotFound
	}
	if t.SellerID != sellerID {
		return store.ErrNotOwner
	}
	delete(f.tiers, tierID)
	return nil
}

func (f *fakeCatalogStore) GetCustomer(_ context.Context, userID string) (*store.Customer, error) {
	c, ok := f.customers[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCatalogStore) SetStripeKeys(_ context.Context, userID string, keys store.StripeKeys) error {
	c, ok := f.customers[userID]
	if !ok {
		c = &store.Customer{UserID: userID}
		f.customers[userID] = c
	}
	c.StripePublishableKey = keys.StripePublishableKey
	c.StripeSecretKey = keys.StripeSecretKey
	c.StripeWebhookSecret = keys.StripeWebhookSecret
	return nil
}

type fakeDirectory struct {
	botGuilds  map[string]*discord.Guild
	guildRoles map[string][]discord.Role
	userGuilds map[string][]discord.Guild
}

func (f *fakeDirectory) Guild(_ context.Context, guildID string) (*discord.Guild, error) {
	g, ok := f.botGuilds[guildID]
	if !ok {
		return nil, discord.ErrUnknownGuild
	}
	return g, nil
}

func (f *fakeDirectory) GuildRoles(_ context.Context, guildID string) ([]discord.Role, error) {
	roles, ok := f.guildRoles[guildID]
	if !ok {
		return nil, discord.ErrUnknownGuild
	}
	return roles, nil
}

func (f *fakeDirectory) UserGuilds(_ context.Context, accessToken string) ([]discord.Guild, error) {
	guilds, ok := f.userGuilds[accessToken]
	if !ok {
		return nil, discord.ErrUnauthorized
	}
	return guilds, nil
}

type fakeValidator struct {
	products map[string]string
	prices   map[string]*billing.Price
}

func (f *fakeValidator) RetrieveProduct(_ context.Context, productID string) (string, error) {
	name, ok := f.products[productID]
	if !ok {
		return "", billing.ErrPriceProductMismatch
	}
	return name, nil
}

func (f *fakeValidator) RetrieveRecurringPrice(_ context.Context, priceID, productID, interval string) (*billing.Price, error) {
	p, ok := f.prices[priceID]
	if !ok || p.ProductID != productID {
		return nil, billing.ErrPriceProductMismatch
	}
	if p.Interval != interval {
		return nil, billing.ErrNotRecurring
	}
	return p, nil
}

type catalogFixture struct {
	records   *fakeCatalogStore
	directory *fakeDirectory
	validator *fakeValidator
	svc       *catalog.Service
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	records := newFakeCatalogStore()
	records.servers["G1"] = &store.MonetizedServer{
		ID: "G1", Name: "Guild One", OwnerID: sellerID, BotIsInServer: true,
	}
	records.customers[sellerID] = &store.Customer{
		UserID:          sellerID,
		StripeSecretKey: "sk_test_seller",
	}

	directory := &fakeDirectory{
		botGuilds: map[string]*discord.Guild{
			"G1": {ID: "G1", Name: "Guild One"},
		},
		guildRoles: map[string][]discord.Role{
			"G1": {{ID: "R1", Name: "Member"}, {ID: "R2", Name: "VIP"}},
		},
		userGuilds: map[string][]discord.Guild{
			"tok_seller": {
				{ID: "G1", Name: "Guild One", Owner: true},
				{ID: "G2", Name: "Guild Two", Owner: true},
				{ID: "G3", Name: "Someone Else's", Owner: false},
			},
		},
	}

	validator := &fakeValidator{
		products: map[string]string{"prod_1": "Gold"},
		prices: map[string]*billing.Price{
			"price_m":     {ID: "price_m", ProductID: "prod_1", UnitAmount: 500, Currency: "usd", Interval: "month"},
			"price_y":     {ID: "price_y", ProductID: "prod_1", UnitAmount: 5000, Currency: "usd", Interval: "year"},
			"price_y_eur": {ID: "price_y_eur", ProductID: "prod_1", UnitAmount: 4500, Currency: "eur", Interval: "year"},
			"price_once":  {ID: "price_once", ProductID: "prod_1", UnitAmount: 900, Currency: "usd", Interval: ""},
		},
	}

	factory := func(creds billing.Credentials) (catalog.PriceValidator, error) {
		require.Equal(t, "sk_test_seller", creds.SecretKey)
		return validator, nil
	}

	return &catalogFixture{
		records:   records,
		directory: directory,
		validator: validator,
		svc:       catalog.NewService(records, directory, factory, nil),
	}
}

func TestAvailableServers(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	out, err := f.svc.AvailableServers(context.Background(), sellerID, "tok_seller")
	require.NoError(t, err)

	// G1 is enrolled, G3 is not owned; only G2 remains.
	require.Len(t, out, 1)
	assert.Equal(t, "G2", out[0].ID)
}

func TestAddServer(t *testing.T) {
	t.Parallel()

	t.Run("owned guild with bot", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		f.directory.botGuilds["G2"] = &discord.Guild{ID: "G2"}

		srv, err := f.svc.AddServer(context.Background(), sellerID, "tok_seller", "G2")
		require.NoError(t, err)
		assert.True(t, srv.BotIsInServer)
		assert.Equal(t, sellerID, f.records.servers["G2"].OwnerID)
	})

	t.Run("bot not in guild is rejected", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)

		_, err := f.svc.AddServer(context.Background(), sellerID, "tok_seller", "G2")
		assert.ErrorIs(t, err, catalog.ErrBotMissing)
		assert.NotContains(t, f.records.servers, "G2")
	})

	t.Run("not the owner", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		_, err := f.svc.AddServer(context.Background(), sellerID, "tok_seller", "G3")
		assert.ErrorIs(t, err, catalog.ErrNotGuildOwner)
	})

	t.Run("already enrolled", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		_, err := f.svc.AddServer(context.Background(), sellerID, "tok_seller", "G1")
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestRemoveServer_CascadesTiers(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	f.records.tiers["T1"] = &store.Tier{ID: "T1", SellerID: sellerID, GuildID: "G1"}

	require.NoError(t, f.svc.RemoveServer(context.Background(), sellerID, "G1"))
	assert.Empty(t, f.records.servers)
	assert.Empty(t, f.records.tiers)
}

func TestRemoveServer_OnlyOwner(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	err := f.svc.RemoveServer(context.Background(), "intruder", "G1")
	assert.ErrorIs(t, err, store.ErrNotOwner)
	assert.Contains(t, f.records.servers, "G1")
}

func TestRoles(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	roles, err := f.svc.Roles(context.Background(), sellerID, "G1")
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	_, err = f.svc.Roles(context.Background(), "intruder", "G1")
	assert.ErrorIs(t, err, store.ErrNotOwner)
}

func TestSettings_MasksSecrets(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	f.records.customers[sellerID].StripeWebhookSecret = "whsec_verysecret"

	cust, err := f.svc.Settings(context.Background(), sellerID)
	require.NoError(t, err)
	assert.Equal(t, "****ller", cust.StripeSecretKey)
	assert.Equal(t, "****cret", cust.StripeWebhookSecret)
}

func TestSettings_NewSeller(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	cust, err := f.svc.Settings(context.Background(), "seller_new")
	require.NoError(t, err)
	assert.Equal(t, "seller_new", cust.UserID)
	assert.Empty(t, cust.StripeSecretKey)
}

func TestUpdateStripeKeys(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	keys := store.StripeKeys{
		StripePublishableKey: "pk_test_1",
		StripeSecretKey:      "sk_test_new",
		StripeWebhookSecret:  "whsec_new",
	}
	require.NoError(t, f.svc.UpdateStripeKeys(context.Background(), sellerID, keys))
	assert.Equal(t, "sk_test_new", f.records.customers[sellerID].StripeSecretKey)
}
