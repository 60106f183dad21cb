package billing

import "errors"

var (
	ErrMissingSecretKey     = errors.New("stripe secret key is required")
	ErrMissingSignature     = errors.New("webhook signature header is missing")
	ErrSignatureInvalid     = errors.New("webhook signature verification failed")
	ErrMalformedEvent       = errors.New("malformed webhook event payload")
	ErrNoCheckoutURL        = errors.New("no checkout URL returned from stripe")
	ErrPriceProductMismatch = errors.New("price does not belong to the product")
	ErrNotRecurring         = errors.New("price is not a recurring price of the expected interval")
)
