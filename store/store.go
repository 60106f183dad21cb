package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Collection names.
const (
	collServers       = "monetizedServers"
	collTiers         = "tiers"
	collCustomers     = "customers"
	collSubscriptions = "userSubscriptions"
)

// Store provides typed access to the platform's MongoDB collections.
type Store struct {
	db *mongo.Database
}

// New wraps a connected database handle.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) servers() *mongo.Collection       { return s.db.Collection(collServers) }
func (s *Store) tiers() *mongo.Collection         { return s.db.Collection(collTiers) }
func (s *Store) customers() *mongo.Collection     { return s.db.Collection(collCustomers) }
func (s *Store) subscriptions() *mongo.Collection { return s.db.Collection(collSubscriptions) }

// withTx runs fn inside a single multi-document transaction.
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}
