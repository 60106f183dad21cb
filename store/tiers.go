package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// GetTier returns one tier by id.
func (s *Store) GetTier(ctx context.Context, tierID string) (*Tier, error) {
	var t Tier
	err := s.tiers().FindOne(ctx, bson.M{"_id": tierID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("tier %s: %w", tierID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tier %s: %w", tierID, err)
	}
	return &t, nil
}

// ListTiersByGuild returns every tier configured for a guild.
func (s *Store) ListTiersByGuild(ctx context.Context, guildID string) ([]Tier, error) {
	cur, err := s.tiers().Find(ctx, bson.M{"guildId": guildID})
	if err != nil {
		return nil, fmt.Errorf("list tiers for guild %s: %w", guildID, err)
	}
	var out []Tier
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tiers for guild %s: %w", guildID, err)
	}
	return out, nil
}

// ListTiersBySeller returns every tier a seller has created across guilds.
func (s *Store) ListTiersBySeller(ctx context.Context, sellerID string) ([]Tier, error) {
	cur, err := s.tiers().Find(ctx, bson.M{"sellerId": sellerID})
	if err != nil {
		return nil, fmt.Errorf("list tiers for seller %s: %w", sellerID, err)
	}
	var out []Tier
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tiers for seller %s: %w", sellerID, err)
	}
	return out, nil
}

// FindTierByProduct returns the seller's tier backed by a Stripe product.
// Tier switches arrive from Stripe carrying only the product id.
func (s *Store) FindTierByProduct(ctx context.Context, sellerID, productID string) (*Tier, error) {
	var t Tier
	err := s.tiers().FindOne(ctx, bson.M{"sellerId": sellerID, "productId": productID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("tier for product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find tier for product %s: %w", productID, err)
	}
	return &t, nil
}

// CreateTier inserts a new tier, assigning an id when the caller left it
// empty.
func (s *Store) CreateTier(ctx context.Context, t *Tier) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, err := s.tiers().InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("tier %s: %w", t.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("create tier %s: %w", t.ID, err)
	}
	return nil
}

// UpdateTier applies the editable fields of a tier. Price and product
// references never change after creation. Only the creating seller may
// update.
func (s *Store) UpdateTier(ctx context.Context, tierID, sellerID string, upd TierUpdate) error {
	if upd.Benefits == nil {
		upd.Benefits = []string{}
	}
	if upd.DiscordRoles == nil {
		upd.DiscordRoles = []string{}
	}
	res, err := s.tiers().UpdateOne(ctx,
		bson.M{"_id": tierID, "sellerId": sellerID},
		bson.M{"$set": upd})
	if err != nil {
		return fmt.Errorf("update tier %s: %w", tierID, err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing tier from one owned by someone else.
		n, err := s.tiers().CountDocuments(ctx, bson.M{"_id": tierID})
		if err != nil {
			return fmt.Errorf("update tier %s: %w", tierID, err)
		}
		if n == 0 {
			return fmt.Errorf("tier %s: %w", tierID, ErrNotFound)
		}
		return fmt.Errorf("tier %s: %w", tierID, ErrNotOwner)
	}
	return nil
}

// DeleteTier removes a tier after verifying the caller created it. The
// ownership check and delete run in one transaction so a concurrent
// re-creation under the same id cannot be deleted by the wrong seller.
func (s *Store) DeleteTier(ctx context.Context, tierID, sellerID string) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		var t Tier
		err := s.tiers().FindOne(ctx, bson.M{"_id": tierID}).Decode(&t)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if t.SellerID != sellerID {
			return ErrNotOwner
		}
		_, err = s.tiers().DeleteOne(ctx, bson.M{"_id": tierID})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwner) {
			return err
		}
		return fmt.Errorf("delete tier %s: %w", tierID, err)
	}
	return nil
}
