package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quellt/boxwood/pkg/errors"
)

const sceneCollection = "scenes"

// MongoStore archives records in a MongoDB collection. It is the backend
// for deployments where the preview server outlives individual compiles.
type MongoStore struct {
	client *mongo.Client
	scenes *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to MongoDB and pings it to fail fast on bad
// configuration.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to archive")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "archive unreachable")
	}
	return &MongoStore{
		client: client,
		scenes: client.Database(database).Collection(sceneCollection),
	}, nil
}

// Put stores a record, replacing any existing record with the same id.
func (s *MongoStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record needs an id")
	}
	_, err := s.scenes.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "archive scene %s", rec.ID)
	}
	return nil
}

// Get returns the record with the given id.
func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.scenes.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	switch {
	case err == mongo.ErrNoDocuments:
		return nil, errors.New(errors.ErrCodeNotFound, "scene %q not archived", id)
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load scene %s", id)
	}
	return &rec, nil
}

// List returns all records newest first, with Root omitted.
func (s *MongoStore) List(ctx context.Context) ([]*Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"root": 0})
	cur, err := s.scenes.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list archive")
	}
	defer cur.Close(ctx)

	var out []*Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode archive listing")
	}
	return out, nil
}

// Delete removes the record with the given id.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.scenes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete scene %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "scene %q not archived", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
