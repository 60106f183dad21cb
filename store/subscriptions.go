package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetUserSubscription returns one guild subscription by its Stripe
// subscription id.
func (s *Store) GetUserSubscription(ctx context.Context, subscriptionID string) (*UserSubscription, error) {
	var sub UserSubscription
	err := s.subscriptions().FindOne(ctx, bson.M{"_id": subscriptionID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("subscription %s: %w", subscriptionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", subscriptionID, err)
	}
	return &sub, nil
}

// ListUserSubscriptions returns every guild subscription a customer holds.
func (s *Store) ListUserSubscriptions(ctx context.Context, userID string) ([]UserSubscription, error) {
	cur, err := s.subscriptions().Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for %s: %w", userID, err)
	}
	var out []UserSubscription
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode subscriptions for %s: %w", userID, err)
	}
	return out, nil
}

// FindUserSubscriptionByGuild returns a customer's subscription to one
// guild, if any.
func (s *Store) FindUserSubscriptionByGuild(ctx context.Context, userID, guildID string) (*UserSubscription, error) {
	var sub UserSubscription
	err := s.subscriptions().FindOne(ctx, bson.M{"userId": userID, "guildId": guildID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("subscription for %s in %s: %w", userID, guildID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription for %s in %s: %w", userID, guildID, err)
	}
	return &sub, nil
}

// UpsertUserSubscription writes the full subscription record keyed by its
// Stripe subscription id. Webhook redeliveries replay the same document.
func (s *Store) UpsertUserSubscription(ctx context.Context, sub *UserSubscription) error {
	if sub.Roles == nil {
		sub.Roles = []string{}
	}
	_, err := s.subscriptions().ReplaceOne(ctx,
		bson.M{"_id": sub.SubscriptionID},
		sub,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.SubscriptionID, err)
	}
	return nil
}

// UpdateUserSubscriptionTier rewrites the tier linkage and mirrored roles
// after a plan switch within the same guild.
func (s *Store) UpdateUserSubscriptionTier(ctx context.Context, subscriptionID, tierID string, roles []string, status string) error {
	if roles == nil {
		roles = []string{}
	}
	res, err := s.subscriptions().UpdateOne(ctx,
		bson.M{"_id": subscriptionID},
		bson.M{"$set": bson.M{
			"tierId":             tierID,
			"roles":              roles,
			"subscriptionStatus": status,
		}})
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", subscriptionID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("subscription %s: %w", subscriptionID, ErrNotFound)
	}
	return nil
}

// SetUserSubscriptionStatus updates only the billing status of a
// subscription.
func (s *Store) SetUserSubscriptionStatus(ctx context.Context, subscriptionID, status string) error {
	res, err := s.subscriptions().UpdateOne(ctx,
		bson.M{"_id": subscriptionID},
		bson.M{"$set": bson.M{"subscriptionStatus": status}})
	if err != nil {
		return fmt.Errorf("set subscription status %s: %w", subscriptionID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("subscription %s: %w", subscriptionID, ErrNotFound)
	}
	return nil
}

// DeleteUserSubscription removes a subscription record. Deleting a record
// that is already gone is not an error so redelivered deletion events are
// harmless.
func (s *Store) DeleteUserSubscription(ctx context.Context, subscriptionID string) error {
	if _, err := s.subscriptions().DeleteOne(ctx, bson.M{"_id": subscriptionID}); err != nil {
		return fmt.Errorf("delete subscription %s: %w", subscriptionID, err)
	}
	return nil
}
