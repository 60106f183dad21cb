package checkout

import "errors"

var (
	// ErrSellerUnavailable means the guild's seller has no usable Stripe
	// setup or no active platform subscription, so nothing can be sold.
	ErrSellerUnavailable = errors.New("checkout: guild is not available for purchase")

	ErrSelfSubscribe      = errors.New("checkout: sellers cannot subscribe to their own guild")
	ErrAlreadySubscribed  = errors.New("checkout: already subscribed to this guild")
	ErrIntervalNotOffered = errors.New("checkout: tier does not offer this billing interval")
	ErrNoSubscription     = errors.New("checkout: no subscription for this guild")
	ErrNotLinked          = errors.New("checkout: no stripe customer on record")
)
