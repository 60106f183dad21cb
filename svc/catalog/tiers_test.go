package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/billing"
	"github.com/guildpass/guildpass/store"
	"github.com/guildpass/guildpass/svc/catalog"
)

func validTierInput() catalog.TierInput {
	return catalog.TierInput{
		GuildID:        "G1",
		Nickname:       "Gold",
		Description:    "All the perks",
		Benefits:       []string{"chat", "voice"},
		DiscordRoles:   []string{"R2"},
		ProductID:      "prod_1",
		MonthlyPriceID: "price_m",
		YearlyPriceID:  "price_y",
	}
}

func TestCreateTier(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	tier, err := f.svc.CreateTier(context.Background(), sellerID, validTierInput())
	require.NoError(t, err)

	assert.NotEmpty(t, tier.ID)
	assert.Equal(t, sellerID, tier.SellerID)
	assert.Equal(t, "G1", tier.GuildID)
	assert.Equal(t, "prod_1", tier.ProductID)
	assert.InEpsilon(t, 5.0, tier.MonthlyPriceQty, 1e-9)
	assert.InEpsilon(t, 50.0, tier.YearlyPriceQty, 1e-9)
	assert.Equal(t, "usd", tier.Currency)
	assert.Contains(t, f.records.tiers, tier.ID)
}

func TestCreateTier_MonthlyOnly(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	in := validTierInput()
	in.YearlyPriceID = ""

	tier, err := f.svc.CreateTier(context.Background(), sellerID, in)
	require.NoError(t, err)
	assert.Empty(t, tier.YearlyPriceID)
	assert.Zero(t, tier.YearlyPriceQty)
}

func TestCreateTier_Validation(t *testing.T) {
	t.Parallel()

	t.Run("missing monthly price", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		in := validTierInput()
		in.MonthlyPriceID = ""
		_, err := f.svc.CreateTier(context.Background(), sellerID, in)
		assert.ErrorIs(t, err, catalog.ErrMonthlyPriceMissing)
	})

	t.Run("price from another product", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		f.validator.prices["price_m"].ProductID = "prod_other"
		_, err := f.svc.CreateTier(context.Background(), sellerID, validTierInput())
		assert.ErrorIs(t, err, billing.ErrPriceProductMismatch)
	})

	t.Run("one-time price rejected", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		in := validTierInput()
		in.MonthlyPriceID = "price_once"
		f.validator.prices["price_once"].Interval = ""
		_, err := f.svc.CreateTier(context.Background(), sellerID, in)
		assert.ErrorIs(t, err, billing.ErrNotRecurring)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		in := validTierInput()
		in.YearlyPriceID = "price_y_eur"
		_, err := f.svc.CreateTier(context.Background(), sellerID, in)
		assert.ErrorIs(t, err, catalog.ErrCurrencyMismatch)
	})

	t.Run("no stripe keys", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		f.records.customers[sellerID].StripeSecretKey = ""
		_, err := f.svc.CreateTier(context.Background(), sellerID, validTierInput())
		assert.ErrorIs(t, err, catalog.ErrKeysNotConfigured)
	})

	t.Run("guild not owned", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		f.records.servers["G1"].OwnerID = "someone_else"
		_, err := f.svc.CreateTier(context.Background(), sellerID, validTierInput())
		assert.ErrorIs(t, err, store.ErrNotOwner)
	})

	t.Run("nothing stored on failure", func(t *testing.T) {
		t.Parallel()
		f := newCatalogFixture(t)
		in := validTierInput()
		in.YearlyPriceID = "price_y_eur"
		_, _ = f.svc.CreateTier(context.Background(), sellerID, in)
		assert.Empty(t, f.records.tiers)
	})
}

func TestUpdateTier_OnlyEditableFields(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	f.records.tiers["T1"] = &store.Tier{
		ID: "T1", SellerID: sellerID, GuildID: "G1",
		Nickname: "Gold", ProductID: "prod_1", MonthlyPriceID: "price_m",
		MonthlyPriceQty: 5, Currency: "usd",
	}

	tier, err := f.svc.UpdateTier(context.Background(), sellerID, "T1", store.TierUpdate{
		Nickname:     "Platinum",
		Description:  "now shinier",
		Benefits:     []string{"everything"},
		DiscordRoles: []string{"R1", "R2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Platinum", tier.Nickname)
	assert.Equal(t, []string{"R1", "R2"}, tier.DiscordRoles)
	// Billing references are untouched.
	assert.Equal(t, "prod_1", tier.ProductID)
	assert.Equal(t, "price_m", tier.MonthlyPriceID)
	assert.InEpsilon(t, 5.0, tier.MonthlyPriceQty, 1e-9)
}

func TestUpdateTier_WrongSeller(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	f.records.tiers["T1"] = &store.Tier{ID: "T1", SellerID: sellerID, GuildID: "G1"}

	_, err := f.svc.UpdateTier(context.Background(), "intruder", "T1", store.TierUpdate{})
	assert.ErrorIs(t, err, store.ErrNotOwner)
}

func TestDeleteTier(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	f.records.tiers["T1"] = &store.Tier{ID: "T1", SellerID: sellerID, GuildID: "G1"}

	require.NoError(t, f.svc.DeleteTier(context.Background(), sellerID, "T1"))
	assert.Empty(t, f.records.tiers)

	err := f.svc.DeleteTier(context.Background(), sellerID, "T1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
