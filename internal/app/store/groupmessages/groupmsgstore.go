// Package groupmsgstore persists messages posted to chat groups.
package groupmsgstore

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
	return &Store{c: db.Collection("group_messages")}
}

// Insert stores a message already read by its sender.
func (s *Store) Insert(ctx context.Context, group, sender primitive.ObjectID, body string) (models.GroupMessage, error) {
	now := time.Now().UTC()
	m := models.GroupMessage{
		ID:        primitive.NewObjectID(),
		Group:     group,
		Sender:    sender,
		Body:      body,
		ReadBy:    []primitive.ObjectID{sender},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.GroupMessage{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupMessage, error) {
	var m models.GroupMessage
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	return m, err
}

// MarkGroupRead adds user to read_by on every message in group it has not
// seen and did not send.
func (s *Store) MarkGroupRead(ctx context.Context, group, user primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"group": group, "sender": bson.M{"$ne": user}, "read_by": bson.M{"$ne": user}},
		bson.M{"$addToSet": bson.M{"read_by": user}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Thread returns the group's messages, oldest first.
func (s *Store) Thread(ctx context.Context, group primitive.ObjectID) ([]models.GroupMessage, error) {
	cur, err := s.c.Find(ctx, bson.M{"group": group}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []models.GroupMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Edit replaces the body of a live message owned by sender.
// Returns mongo.ErrNoDocuments when the condition does not hold.
func (s *Store) Edit(ctx context.Context, id, sender primitive.ObjectID, body string) (models.GroupMessage, error) {
	var m models.GroupMessage
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sender": sender, "is_deleted": false},
		bson.M{"$set": bson.M{"body": body, "is_edited": true, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	return m, err
}

// SoftDelete marks a live message owned by sender deleted.
func (s *Store) SoftDelete(ctx context.Context, id, sender primitive.ObjectID) (models.GroupMessage, error) {
	var m models.GroupMessage
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sender": sender, "is_deleted": false},
		bson.M{"$set": bson.M{
			"body":       models.DeletedMessageBody,
			"is_deleted": true,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	return m, err
}

// CountUnread counts live messages in groups that user has neither sent
// nor read.
func (s *Store) CountUnread(ctx context.Context, user primitive.ObjectID, groups []primitive.ObjectID) (int64, error) {
	if len(groups) == 0 {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, bson.M{
		"group":      bson.M{"$in": groups},
		"sender":     bson.M{"$ne": user},
		"read_by":    bson.M{"$ne": user},
		"is_deleted": false,
	})
}

// DeleteByGroup hard-deletes every message in group.
func (s *Store) DeleteByGroup(ctx context.Context, group primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group": group})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
