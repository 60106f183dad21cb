// Package reconcile is the webhook-driven engine that keeps Stripe billing
// state, stored records, and Discord role grants converged.
//
// Two feeds exist. The seller feed carries events signed with a seller's own
// webhook secret and drives customer guild subscriptions: activation after
// checkout, tier switches, and deactivation. The platform feed carries events
// signed with the platform secret and drives the seller's own billing record.
//
// Records are always written before Discord is touched, so a failed role
// sync never leaves billing state behind. Role sync failures surface as a
// non-fatal field on the Outcome; record failures are returned as errors so
// Stripe redelivers the event.
package reconcile
