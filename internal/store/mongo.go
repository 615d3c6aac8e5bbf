package store

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/joescharf/prreview/internal/models"
)

// MongoStore implements Store on a single MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to uri and verifies the deployment answers a ping
// within timeout.
func NewMongoStore(ctx context.Context, uri, database, collection string, timeout time.Duration) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client, independent of any caller context.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) InsertReview(ctx context.Context, doc map[string]any) (string, error) {
	body := maps.Clone(doc)
	if body == nil {
		body = map[string]any{}
	}
	delete(body, models.FieldID)

	res, err := s.collection.InsertOne(ctx, body)
	if err != nil {
		return "", fmt.Errorf("insert review: %w", err)
	}
	return idString(res.InsertedID), nil
}

func (s *MongoStore) ListReviews(ctx context.Context, limit int) ([]*models.ArchivedReview, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var reviews []*models.ArchivedReview
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
		reviews = append(reviews, reviewFromBSON(m))
	}
	return reviews, cur.Err()
}

func reviewFromBSON(m bson.M) *models.ArchivedReview {
	r := &models.ArchivedReview{
		ID:   idString(m[models.FieldID]),
		Data: map[string]any(m),
	}
	r.PRTitle, _ = m[models.FieldPRTitle].(string)
	if ts, ok := m[models.FieldArchivedAt].(string); ok {
		r.ArchivedAt, _ = time.Parse(time.RFC3339Nano, ts)
	} else if oid, ok := m[models.FieldID].(primitive.ObjectID); ok {
		r.ArchivedAt = oid.Timestamp()
	}
	return r
}

func idString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
