// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStale is returned by Replace when the group changed after it was read.
var ErrStale = errors.New("chat group was modified concurrently")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chat_groups")}
}

// Summary is a group with the caller's unread count and the time of its
// newest message.
type Summary struct {
	models.ChatGroup `bson:",inline"`
	UnreadCount      int64      `bson:"unread_count" json:"unreadCount"`
	LastMessageAt    *time.Time `bson:"last_message_at,omitempty" json:"lastMessageAt"`
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ChatGroup, error) {
	var g models.ChatGroup
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.ChatGroup{}, err
	}
	return g, nil
}

// Create inserts g with fresh id and timestamps. Callers are responsible for
// de-duplicating members and admins.
func (s *Store) Create(ctx context.Context, g models.ChatGroup) (models.ChatGroup, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	g.ID = primitive.NewObjectID()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.ChatGroup{}, err
	}
	return g, nil
}

// IDsForMember returns the ids of every group userID belongs to.
func (s *Store) IDsForMember(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"members": userID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Summaries lists userID's groups with per-group unread counts in one
// aggregation, most recently active first.
func (s *Store) Summaries(ctx context.Context, userID primitive.ObjectID) ([]Summary, error) {
	unread := bson.M{"$cond": bson.A{
		bson.M{"$and": bson.A{
			bson.M{"$ne": bson.A{"$sender", userID}},
			bson.M{"$not": bson.A{bson.M{"$in": bson.A{userID, bson.M{"$ifNull": bson.A{"$read_by", bson.A{}}}}}}},
			bson.M{"$ne": bson.A{"$is_deleted", true}},
		}},
		1, 0,
	}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"members": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "group_messages",
			"let":  bson.M{"gid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$group", "$$gid"}}}},
				bson.M{"$group": bson.M{
					"_id":    nil,
					"last":   bson.M{"$max": "$created_at"},
					"unread": bson.M{"$sum": unread},
				}},
			},
			"as": "stats",
		}}},
		{{Key: "$set", Value: bson.M{"stats": bson.M{"$arrayElemAt": bson.A{"$stats", 0}}}}},
		{{Key: "$set", Value: bson.M{
			"unread_count":    bson.M{"$ifNull": bson.A{"$stats.unread", 0}},
			"last_message_at": "$stats.last",
		}}},
		{{Key: "$unset", Value: "stats"}},
		{{Key: "$sort", Value: bson.D{{Key: "last_message_at", Value: -1}, {Key: "updated_at", Value: -1}}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace overwrites name, description, members and admins of prev. The
// write only lands if the stored group still carries prev.UpdatedAt;
// otherwise ErrStale is returned.
func (s *Store) Replace(ctx context.Context, prev, next models.ChatGroup) (models.ChatGroup, error) {
	var g models.ChatGroup
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": prev.ID, "updated_at": prev.UpdatedAt},
		bson.M{"$set": bson.M{
			"name":        next.Name,
			"description": next.Description,
			"members":     next.Members,
			"admins":      next.Admins,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ChatGroup{}, ErrStale
	}
	return g, err
}

// SetAdmin grants or revokes target's admin flag in one conditional update.
// Granting requires target to be a member. Revoking never removes the last
// admin. When actor is non-nil the actor must still be an admin at write
// time. Returns mongo.ErrNoDocuments when any condition fails.
func (s *Store) SetAdmin(ctx context.Context, id, target primitive.ObjectID, admin bool, actor *primitive.ObjectID) (models.ChatGroup, error) {
	filter := bson.M{"_id": id}
	var update bson.M
	if admin {
		filter["members"] = target
		update = bson.M{"$addToSet": bson.M{"admins": target}}
	} else {
		filter["admins.1"] = bson.M{"$exists": true}
		update = bson.M{"$pull": bson.M{"admins": target}}
	}
	if actor != nil {
		filter["admins"] = *actor
	}
	update["$set"] = bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}

	var g models.ChatGroup
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&g)
	return g, err
}

// Delete removes the group document.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
