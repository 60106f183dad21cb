// Package store persists the platform's records in MongoDB: monetized
// servers, tiers, seller billing customers, and customer guild
// subscriptions. Webhook-driven writes are merge-style upserts so that
// redelivered events converge on the same document instead of failing.
package store
