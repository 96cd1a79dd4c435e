// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultListLimit caps how many notifications List returns.
const DefaultListLimit = 50

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Insert stores n as unread with a fresh id.
func (s *Store) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.IsRead = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// InsertMany stores one unread notification per element of ns.
func (s *Store) InsertMany(ctx context.Context, ns []models.Notification) ([]models.Notification, error) {
	if len(ns) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(ns))
	for i := range ns {
		ns[i].ID = primitive.NewObjectID()
		ns[i].IsRead = false
		if ns[i].CreatedAt.IsZero() {
			ns[i].CreatedAt = now
		}
		docs[i] = ns[i]
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return ns, nil
}

// List returns recipient's notifications, newest first.
func (s *Store) List(ctx context.Context, recipient primitive.ObjectID, limit int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	cur, err := s.c.Find(ctx, bson.M{"recipient": recipient}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flips one notification owned by recipient. It reports whether a
// notification with that id exists for recipient.
func (s *Store) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// MarkAllRead flips every unread notification for recipient.
func (s *Store) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"recipient": recipient, "is_read": false})
}
