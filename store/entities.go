package store

// MonetizedServer is a Discord guild enrolled for monetization. The document
// id is the guild snowflake, so at most one record exists per guild.
type MonetizedServer struct {
	ID             string `bson:"_id" json:"id"`
	Name           string `bson:"name" json:"name"`
	Icon           string `bson:"icon" json:"icon"`
	OwnerID        string `bson:"ownerId" json:"ownerId"`
	BotIsInServer  bool   `bson:"botIsInServer" json:"botIsInServer"`
}

// Tier is a purchasable subscription level for one guild. Price and product
// references are seller-provided (the seller configures their own Stripe
// catalog) and immutable after creation; the *PriceQty fields cache unit
// amounts in major currency units for display.
type Tier struct {
	ID              string   `bson:"_id" json:"id"`
	SellerID        string   `bson:"sellerId" json:"sellerId"`
	GuildID         string   `bson:"guildId" json:"guildId"`
	Nickname        string   `bson:"nickname" json:"nickname"`
	Description     string   `bson:"description,omitempty" json:"description,omitempty"`
	Benefits        []string `bson:"benefits,omitempty" json:"benefits,omitempty"`
	DiscordRoles    []string `bson:"discordRoles" json:"discordRoles"`
	ProductID       string   `bson:"productId" json:"productId"`
	MonthlyPriceID  string   `bson:"monthlyPriceId" json:"monthlyPriceId"`
	YearlyPriceID   string   `bson:"yearlyPriceId,omitempty" json:"yearlyPriceId,omitempty"`
	MonthlyPriceQty float64  `bson:"monthlyPriceQty" json:"monthlyPriceQty"`
	YearlyPriceQty  float64  `bson:"yearlyPriceQty,omitempty" json:"yearlyPriceQty,omitempty"`
	Currency        string   `bson:"currency" json:"currency"`
}

// TierUpdate carries the only tier fields a seller may edit after creation.
type TierUpdate struct {
	Nickname     string   `bson:"nickname" json:"nickname"`
	Description  string   `bson:"description" json:"description"`
	Benefits     []string `bson:"benefits" json:"benefits"`
	DiscordRoles []string `bson:"discordRoles" json:"discordRoles"`
}

// Customer is a seller's billing identity: their platform subscription state
// plus the Stripe keys they configured for charging their own subscribers.
// The document id is the seller's Discord user id. Billing fields stay empty
// until the seller's platform checkout completes.
type Customer struct {
	UserID                    string `bson:"_id" json:"userId"`
	StripeCustomerID          string `bson:"stripeCustomerId,omitempty" json:"stripeCustomerId"`
	StripeSubscriptionID      string `bson:"stripeSubscriptionId,omitempty" json:"stripeSubscriptionId"`
	StripeSubscriptionItemID  string `bson:"stripeSubscriptionItemId,omitempty" json:"stripeSubscriptionItemId"`
	StripeSubscriptionStatus  string `bson:"stripeSubscriptionStatus,omitempty" json:"stripeSubscriptionStatus"`
	StripeSubscriptionPriceID string `bson:"stripeSubscriptionPriceId,omitempty" json:"stripeSubscriptionPriceId"`
	StripePublishableKey      string `bson:"stripePublishableKey,omitempty" json:"stripePublishableKey"`
	StripeSecretKey           string `bson:"stripeSecretKey,omitempty" json:"stripeSecretKey"`
	StripeWebhookSecret       string `bson:"stripeWebhookSecret,omitempty" json:"stripeWebhookSecret"`
}

// HasActivePlatformSubscription reports whether the seller's own platform
// subscription entitles them to use the service.
func (c *Customer) HasActivePlatformSubscription() bool {
	return c.StripeSubscriptionStatus == "active" || c.StripeSubscriptionStatus == "trialing"
}

// StripeKeys is the editable key portion of a Customer.
type StripeKeys struct {
	StripePublishableKey string `bson:"stripePublishableKey" json:"stripePublishableKey"`
	StripeSecretKey      string `bson:"stripeSecretKey" json:"stripeSecretKey"`
	StripeWebhookSecret  string `bson:"stripeWebhookSecret" json:"stripeWebhookSecret"`
}

// PlatformBilling is the platform-subscription portion of a Customer,
// written by the platform webhook.
type PlatformBilling struct {
	StripeCustomerID          string `bson:"stripeCustomerId" json:"stripeCustomerId"`
	StripeSubscriptionID      string `bson:"stripeSubscriptionId" json:"stripeSubscriptionId"`
	StripeSubscriptionItemID  string `bson:"stripeSubscriptionItemId" json:"stripeSubscriptionItemId"`
	StripeSubscriptionStatus  string `bson:"stripeSubscriptionStatus" json:"stripeSubscriptionStatus"`
	StripeSubscriptionPriceID string `bson:"stripeSubscriptionPriceId" json:"stripeSubscriptionPriceId"`
}

// UserSubscription is a customer's paid access to one guild's tier. The
// document id is the Stripe subscription id. Roles mirror the tier's
// discordRoles as of the last reconciliation; guild name and icon are
// denormalized for display.
type UserSubscription struct {
	SubscriptionID     string   `bson:"_id" json:"subscriptionId"`
	UserID             string   `bson:"userId" json:"userId"`
	SubscriptionStatus string   `bson:"subscriptionStatus" json:"subscriptionStatus"`
	CustomerID         string   `bson:"customerId" json:"customerId"`
	GuildID            string   `bson:"guildId" json:"guildId"`
	SellerID           string   `bson:"sellerId" json:"sellerId"`
	GuildName          string   `bson:"guildName" json:"guildName"`
	GuildIcon          string   `bson:"guildIcon" json:"guildIcon"`
	TierID             string   `bson:"tierId" json:"tierId"`
	Roles              []string `bson:"roles" json:"roles"`
}

// IsActive reports whether the subscription currently grants access.
func (s *UserSubscription) IsActive() bool {
	return s.SubscriptionStatus == "active" || s.SubscriptionStatus == "trialing"
}
