package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// maxServersPerSeller caps how many guilds one seller may monetize.
const maxServersPerSeller = 10

// GetServer returns the monetized server record for a guild.
func (s *Store) GetServer(ctx context.Context, guildID string) (*MonetizedServer, error) {
	var srv MonetizedServer
	err := s.servers().FindOne(ctx, bson.M{"_id": guildID}).Decode(&srv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("server %s: %w", guildID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get server %s: %w", guildID, err)
	}
	return &srv, nil
}

// ListServersByOwner returns all guilds a seller has monetized.
func (s *Store) ListServersByOwner(ctx context.Context, ownerID string) ([]MonetizedServer, error) {
	cur, err := s.servers().Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list servers for %s: %w", ownerID, err)
	}
	var out []MonetizedServer
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode servers for %s: %w", ownerID, err)
	}
	return out, nil
}

// CreateServer enrolls a guild for monetization. It fails with
// ErrAlreadyExists when the guild is already monetized (by anyone) and with
// ErrServerLimitReached when the owner is at the per-seller cap. The check
// and insert run in one transaction.
func (s *Store) CreateServer(ctx context.Context, srv *MonetizedServer) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		n, err := s.servers().CountDocuments(ctx, bson.M{"_id": srv.ID})
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyExists
		}
		owned, err := s.servers().CountDocuments(ctx, bson.M{"ownerId": srv.OwnerID})
		if err != nil {
			return err
		}
		if owned >= maxServersPerSeller {
			return ErrServerLimitReached
		}
		_, err = s.servers().InsertOne(ctx, srv)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrServerLimitReached) {
			return err
		}
		return fmt.Errorf("create server %s: %w", srv.ID, err)
	}
	return nil
}

// SetBotPresence records whether the platform bot is currently a member of
// the guild.
func (s *Store) SetBotPresence(ctx context.Context, guildID string, present bool) error {
	res, err := s.servers().UpdateOne(ctx,
		bson.M{"_id": guildID},
		bson.M{"$set": bson.M{"botIsInServer": present}})
	if err != nil {
		return fmt.Errorf("set bot presence for %s: %w", guildID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("server %s: %w", guildID, ErrNotFound)
	}
	return nil
}

// DeleteServerCascade removes a monetized server and every tier attached to
// it in one transaction. Only the enrolling owner may delete.
func (s *Store) DeleteServerCascade(ctx context.Context, guildID, ownerID string) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		var srv MonetizedServer
		err := s.servers().FindOne(ctx, bson.M{"_id": guildID}).Decode(&srv)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if srv.OwnerID != ownerID {
			return ErrNotOwner
		}
		if _, err := s.tiers().DeleteMany(ctx, bson.M{"guildId": guildID}); err != nil {
			return err
		}
		_, err = s.servers().DeleteOne(ctx, bson.M{"_id": guildID})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwner) {
			return err
		}
		return fmt.Errorf("delete server %s: %w", guildID, err)
	}
	return nil
}
