package billing

// Credentials is the per-seller Stripe capability: resolved from the record
// store at request time and passed explicitly to New. Concurrent requests
// serve different sellers, so these are never cached process-wide.
type Credentials struct {
	SecretKey     string
	WebhookSecret string
}

// Complete reports whether both keys are configured.
func (c Credentials) Complete() bool {
	return c.SecretKey != "" && c.WebhookSecret != ""
}

// Config holds the platform-level Stripe credentials used to bill sellers.
type Config struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY,required"`
	PublishableKey string `env:"STRIPE_PUBLISHABLE_KEY"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// Credentials adapts the platform configuration into the capability form.
func (c Config) Credentials() Credentials {
	return Credentials{SecretKey: c.SecretKey, WebhookSecret: c.WebhookSecret}
}
