package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetCustomer returns the seller billing record for a Discord user id.
func (s *Store) GetCustomer(ctx context.Context, userID string) (*Customer, error) {
	var c Customer
	err := s.customers().FindOne(ctx, bson.M{"_id": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("customer %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", userID, err)
	}
	return &c, nil
}

// FindCustomerByStripeCustomerID locates a seller record by the Stripe
// customer attached to their platform subscription.
func (s *Store) FindCustomerByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*Customer, error) {
	var c Customer
	err := s.customers().FindOne(ctx, bson.M{"stripeCustomerId": stripeCustomerID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("customer for %s: %w", stripeCustomerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find customer for %s: %w", stripeCustomerID, err)
	}
	return &c, nil
}

// SetStripeKeys stores the seller's own Stripe API credentials, creating the
// customer record if it does not exist yet.
func (s *Store) SetStripeKeys(ctx context.Context, userID string, keys StripeKeys) error {
	_, err := s.customers().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": keys},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set stripe keys for %s: %w", userID, err)
	}
	return nil
}

// SetPlatformBilling merges the seller's platform subscription state into
// their customer record, creating it on first checkout. Redelivered webhook
// events write the same values, so the operation is idempotent.
func (s *Store) SetPlatformBilling(ctx context.Context, userID string, billing PlatformBilling) error {
	_, err := s.customers().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": billing},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set platform billing for %s: %w", userID, err)
	}
	return nil
}

// SetPlatformSubscriptionStatus updates only the status of the seller's
// platform subscription.
func (s *Store) SetPlatformSubscriptionStatus(ctx context.Context, userID, status string) error {
	res, err := s.customers().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"stripeSubscriptionStatus": status}})
	if err != nil {
		return fmt.Errorf("set subscription status for %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("customer %s: %w", userID, ErrNotFound)
	}
	return nil
}

// ClearPlatformBilling blanks the seller's platform billing fields after
// their Stripe customer is deleted. The record itself survives so the
// seller's configured keys remain.
func (s *Store) ClearPlatformBilling(ctx context.Context, userID string) error {
	res, err := s.customers().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": PlatformBilling{}})
	if err != nil {
		return fmt.Errorf("clear platform billing for %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("customer %s: %w", userID, ErrNotFound)
	}
	return nil
}
