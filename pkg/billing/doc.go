// Package billing wraps the Stripe SDK for a multi-tenant setup: every seller
// supplies their own secret key and webhook signing secret, so clients are
// constructed per request from a Credentials capability and never shared
// process-wide. The platform's own billing (sellers subscribing to the
// service) uses a second, platform-level key pair from configuration.
//
// Incoming webhook payloads are verified and narrowed into a closed Event
// union at the package boundary; handler logic never sees raw Stripe event
// maps.
package billing
