package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
)

// Client is a per-request Stripe client bound to one seller's (or the
// platform's) secret key.
type Client struct {
	api *client.API
}

// New constructs a client from the given credentials.
func New(creds Credentials) (*Client, error) {
	if creds.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}

	api := &client.API{}
	api.Init(creds.SecretKey, nil)
	return &Client{api: api}, nil
}

// Price is the subset of a Stripe price the tier catalog consumes.
type Price struct {
	ID         string
	ProductID  string
	UnitAmount int64  // smallest currency unit
	Currency   string // ISO 4217, lowercase
	Interval   string // "month", "year", or "" for one-time prices
}

// Subscription is the subset of a Stripe subscription the engine consumes.
type Subscription struct {
	ID      string
	Status  string
	PriceID string
	ItemID  string
}

// CheckoutSession is a created or retrieved hosted checkout session.
type CheckoutSession struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
}

// RetrieveProduct verifies a product exists and returns its id.
func (c *Client) RetrieveProduct(ctx context.Context, productID string) (string, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	product, err := c.api.Products.Get(productID, params)
	if err != nil {
		return "", fmt.Errorf("retrieve product %s: %w", productID, err)
	}
	return product.ID, nil
}

// RetrievePrice fetches a price with its owning product id and recurrence.
func (c *Client) RetrievePrice(ctx context.Context, priceID string) (*Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx

	price, err := c.api.Prices.Get(priceID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve price %s: %w", priceID, err)
	}

	out := &Price{
		ID:         price.ID,
		UnitAmount: price.UnitAmount,
		Currency:   string(price.Currency),
	}
	if price.Product != nil {
		out.ProductID = price.Product.ID
	}
	if price.Recurring != nil {
		out.Interval = string(price.Recurring.Interval)
	}
	return out, nil
}

// RetrieveRecurringPrice fetches a price and validates it is a recurring
// price of the given interval belonging to the given product.
func (c *Client) RetrieveRecurringPrice(ctx context.Context, priceID, productID, interval string) (*Price, error) {
	price, err := c.RetrievePrice(ctx, priceID)
	if err != nil {
		return nil, err
	}
	if price.ProductID != productID {
		return nil, fmt.Errorf("price %s, product %s: %w", priceID, productID, ErrPriceProductMismatch)
	}
	if price.Interval != interval {
		return nil, fmt.Errorf("price %s is %q, want %q: %w", priceID, price.Interval, interval, ErrNotRecurring)
	}
	return price, nil
}

// RetrieveSubscription fetches the authoritative subscription state.
func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}

	out := &Subscription{ID: sub.ID, Status: string(sub.Status)}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.ItemID = item.ID
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
	}
	return out, nil
}

// FindCustomerByEmail returns the id of an existing customer with the given
// email, or "" when none exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := c.api.Customers.List(params)
	for it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}
	return "", nil
}

// CustomerHasSubscription reports whether the customer has any subscription.
func (c *Client) CustomerHasSubscription(ctx context.Context, customerID string) (bool, error) {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := c.api.Subscriptions.List(params)
	for it.Next() {
		return true, nil
	}
	if err := it.Err(); err != nil {
		return false, fmt.Errorf("list subscriptions: %w", err)
	}
	return false, nil
}

// CreateCustomer creates a customer carrying the checkout metadata.
func (c *Client) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.Metadata = metadata

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

// CheckoutParams describes a subscription checkout session to create.
type CheckoutParams struct {
	PriceID    string
	CustomerID string            // optional; Stripe creates one when empty
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string // copied onto session and subscription
}

// CreateCheckoutSession creates a hosted subscription checkout. Metadata is
// attached to both the session and the resulting subscription so webhook
// handlers can recover the business identity from either object.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: p.Metadata,
		},
	}
	params.Context = ctx
	params.Metadata = p.Metadata
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// RetrieveCheckoutSession fetches a checkout session's completion state.
func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	return &CheckoutSession{
		ID:            session.ID,
		URL:           session.URL,
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
	}, nil
}

// CreateBillingPortalSession returns a pre-authenticated billing portal URL
// for the given customer.
func (c *Client) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return session.URL, nil
}
