// Package catalog is the seller-facing management surface: enrolling guilds
// for monetization, configuring tiers backed by the seller's own Stripe
// catalog, and storing the seller's Stripe keys.
package catalog
