package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoStore backs the user repository with a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoStore connects, pings, and ensures the unique telegramId index.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	users := client.Database(database).Collection(usersCollection)
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "telegramId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure telegramId index: %w", err)
	}

	return &MongoStore{client: client, users: users}, nil
}

// FindByTelegramID loads a single user record read-only.
func (s *MongoStore) FindByTelegramID(ctx context.Context, telegramID string) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"telegramId": telegramID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, telegramID)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", telegramID, err)
	}
	return &user, nil
}

// UpsertWallet appends a wallet to the user's list, creating the user with
// default settings when absent. Used by the provisioning utility; the trade
// path never writes.
func (s *MongoStore) UpsertWallet(ctx context.Context, telegramID string, wallet Wallet) error {
	if wallet.Label == "" {
		wallet.Label = DefaultWalletLabel
	}
	update := bson.M{
		"$push": bson.M{"wallets": wallet},
		"$setOnInsert": bson.M{
			"telegramId":        telegramID,
			"activeWalletIndex": 0,
			"settings":          DefaultSettings(),
		},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"telegramId": telegramID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert wallet for %s: %w", telegramID, err)
	}
	return nil
}

// Close releases the underlying client connections.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
