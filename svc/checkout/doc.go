// Package checkout creates Stripe checkout and billing-portal sessions for
// both sides of the marketplace: customers buying guild access from a
// seller's Stripe account, and sellers buying the platform subscription from
// ours.
package checkout
