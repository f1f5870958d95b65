package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/user/cibulb/internal/status"
)

const mongoDisconnectTimeout = 5 * time.Second

// MongoConnector opens MongoDB-backed stores.
type MongoConnector struct {
	uri        string
	database   string
	collection string
}

// NewMongoConnector creates a connector for one collection.
func NewMongoConnector(uri, database, collection string) *MongoConnector {
	return &MongoConnector{uri: uri, database: database, collection: collection}
}

// Connect dials and pings the server and ensures the unique name index.
func (c *MongoConnector) Connect(ctx context.Context) (Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnect(client)
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	coll := client.Database(c.database).Collection(c.collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		disconnect(client)
		return nil, fmt.Errorf("%w: ensure name index: %w", ErrOperation, err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// MongoStore handles repository record operations on a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Upsert sets the status field of the named document, inserting it if absent.
func (s *MongoStore) Upsert(ctx context.Context, name string, st status.Status) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %w", ErrOperation, name, err)
	}
	return nil
}

// FetchAll returns every document in the collection.
func (s *MongoStore) FetchAll(ctx context.Context) ([]RepositoryRecord, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch all: %w", ErrOperation, err)
	}
	var records []RepositoryRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %w", ErrOperation, err)
	}
	return records, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	_ = client.Disconnect(ctx)
}
