// internal/app/store/pushsubs/pushsubstore.go
package pushsubstore

import (
	"context"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("push_subscriptions")}
}

// Upsert registers sub keyed by endpoint. A browser that re-subscribes under
// a different user moves the endpoint to that user.
func (s *Store) Upsert(ctx context.Context, sub models.PushSubscription) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"endpoint": sub.Endpoint},
		bson.M{
			"$set": bson.M{
				"user_id": sub.UserID,
				"p256dh":  sub.P256dh,
				"auth":    sub.Auth,
			},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true))
	return err
}

// Delete removes userID's subscription for endpoint. It reports whether one
// existed.
func (s *Store) Delete(ctx context.Context, userID primitive.ObjectID, endpoint string) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PushSubscription{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
