// Package dmstore persists direct messages.
//
// Every read-state or content change is a single conditional update so
// concurrent requests cannot lose each other's writes.
package dmstore

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
	return &Store{c: db.Collection("direct_messages")}
}

// Insert stores a new unread message.
func (s *Store) Insert(ctx context.Context, sender, recipient primitive.ObjectID, body string) (models.DirectMessage, error) {
	now := time.Now().UTC()
	m := models.DirectMessage{
		ID:        primitive.NewObjectID(),
		Sender:    sender,
		Recipient: recipient,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.DirectMessage{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DirectMessage, error) {
	var m models.DirectMessage
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	return m, err
}

// MarkThreadRead flips every unread message from peer to reader. Calling it
// again is a no-op.
func (s *Store) MarkThreadRead(ctx context.Context, reader, peer primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"sender": peer, "recipient": reader, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Thread returns the conversation between a and b, oldest first.
func (s *Store) Thread(ctx context.Context, a, b primitive.ObjectID) ([]models.DirectMessage, error) {
	filter := bson.M{"$or": []bson.M{
		{"sender": a, "recipient": b},
		{"sender": b, "recipient": a},
	}}
	return s.find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
}

// ListForUser returns messages sent or received by userID, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.DirectMessage, error) {
	filter := bson.M{"$or": []bson.M{{"sender": userID}, {"recipient": userID}}}
	return s.find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.DirectMessage, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []models.DirectMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Edit replaces the body if sender owns the message and it is not deleted.
// Returns mongo.ErrNoDocuments when the condition does not hold.
func (s *Store) Edit(ctx context.Context, id, sender primitive.ObjectID, body string) (models.DirectMessage, error) {
	var m models.DirectMessage
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sender": sender, "is_deleted": false},
		bson.M{"$set": bson.M{"body": body, "is_edited": true, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	return m, err
}

// SoftDelete marks the message deleted and replaces its body. It matches
// only live messages owned by sender; returns mongo.ErrNoDocuments otherwise.
func (s *Store) SoftDelete(ctx context.Context, id, sender primitive.ObjectID) (models.DirectMessage, error) {
	var m models.DirectMessage
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

// CountUnread counts live unread messages addressed to recipient.
func (s *Store) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"recipient": recipient, "is_read": false, "is_deleted": false})
}
