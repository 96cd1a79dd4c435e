// internal/app/store/polls/pollstore.go
package pollstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrAlreadyVoted  = errors.New("already voted")
	ErrPollClosed    = errors.New("poll is closed")
	ErrInvalidOption = errors.New("invalid poll option")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("polls")}
}

// Create inserts an open poll with zeroed tallies.
func (s *Store) Create(ctx context.Context, p models.Poll) (models.Poll, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Status = models.PollOpen
	p.Voters = []string{}
	for i := range p.Options {
		p.Options[i].Votes = 0
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Poll, error) {
	var p models.Poll
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// ListFilter narrows List. A nil ClubID means every club.
type ListFilter struct {
	ClubID     *primitive.ObjectID
	PublicOnly bool
	Status     string
	Limit      int64
}

// List returns polls newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Poll, error) {
	filter := bson.M{}
	if f.ClubID != nil {
		filter["club_id"] = *f.ClubID
	}
	if f.PublicOnly {
		filter["is_public"] = true
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Poll{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Vote records voterKey's ballot for option in a single conditional update:
// the poll must be open and voterKey must not have voted. When the update
// does not match, the poll is re-read to report why (mongo.ErrNoDocuments,
// ErrPollClosed, ErrAlreadyVoted or ErrInvalidOption).
func (s *Store) Vote(ctx context.Context, id primitive.ObjectID, option int, voterKey string) (models.Poll, error) {
	if option < 0 {
		return models.Poll{}, ErrInvalidOption
	}
	optKey := fmt.Sprintf("options.%d", option)

	var p models.Poll
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    id,
			"status": models.PollOpen,
			"voters": bson.M{"$ne": voterKey},
			optKey:   bson.M{"$exists": true},
		},
		bson.M{
			"$push": bson.M{"voters": voterKey},
			"$inc":  bson.M{optKey + ".votes": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Poll{}, err
	}

	cur, gerr := s.GetByID(ctx, id)
	if gerr != nil {
		return models.Poll{}, gerr
	}
	switch {
	case cur.Status != models.PollOpen:
		return models.Poll{}, ErrPollClosed
	case option >= len(cur.Options):
		return models.Poll{}, ErrInvalidOption
	default:
		return models.Poll{}, ErrAlreadyVoted
	}
}

// Close marks the poll closed. It reports whether the poll exists.
func (s *Store) Close(ctx context.Context, id primitive.ObjectID) (models.Poll, error) {
	var p models.Poll
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.PollClosed, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	return p, err
}
