package clubstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateSlug = errors.New("a club with this slug already exists")
	ErrChiefTaken    = errors.New("this user is already chief of another club")
	ErrEmptyName     = errors.New("club name is required")
	ErrEmptySlug     = errors.New("club slug must contain letters or digits")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clubs")}
}

// Create inserts a club, deriving the slug from the name when none is given.
// Slugify keeps only ASCII word characters, so a name in another script
// needs an explicit slug.
func (s *Store) Create(ctx context.Context, c models.Club) (models.Club, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return models.Club{}, ErrEmptyName
	}
	c.ID = primitive.NewObjectID()
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	} else {
		c.Slug = Slugify(c.Slug)
	}
	if c.Slug == "" {
		return models.Club{}, ErrEmptySlug
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			if c.ChiefUserID != nil && strings.Contains(err.Error(), "chief") {
				return models.Club{}, ErrChiefTaken
			}
			return models.Club{}, ErrDuplicateSlug
		}
		return models.Club{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Club, error) {
	var c models.Club
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, err
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Club, error) {
	var c models.Club
	err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&c)
	return c, err
}

// GetByChief returns the club whose chief is userID.
func (s *Store) GetByChief(ctx context.Context, userID primitive.ObjectID) (models.Club, error) {
	var c models.Club
	err := s.c.FindOne(ctx, bson.M{"chief_user_id": userID}).Decode(&c)
	return c, err
}

// List returns all clubs by name.
func (s *Store) List(ctx context.Context) ([]models.Club, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	clubs := []models.Club{}
	if err := cur.All(ctx, &clubs); err != nil {
		return nil, err
	}
	return clubs, nil
}

// ProfileUpdate holds editable profile fields. Nil fields are left alone.
type ProfileUpdate struct {
	Name        *string
	Description *string
}

// UpdateProfile applies upd. The slug is not re-derived on rename so links
// stay stable.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (models.Club, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return models.Club{}, ErrEmptyName
		}
		set["name"] = name
	}
	if upd.Description != nil {
		set["description"] = strings.TrimSpace(*upd.Description)
	}
	var c models.Club
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	return c, err
}

// SetChief assigns or, with a nil chief, removes the club's chief. The
// unique chief index turns a second assignment into ErrChiefTaken.
func (s *Store) SetChief(ctx context.Context, id primitive.ObjectID, chief *primitive.ObjectID) (models.Club, error) {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if chief == nil {
		update["$unset"] = bson.M{"chief_user_id": ""}
	} else {
		update["$set"].(bson.M)["chief_user_id"] = *chief
	}
	var c models.Club
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil && wafflemongo.IsDup(err) {
		return models.Club{}, ErrChiefTaken
	}
	return c, err
}

// EffectiveClub resolves the club an account acts for: the assigned club
// when set, otherwise the club it is chief of. It returns nil when neither
// exists.
func (s *Store) EffectiveClub(ctx context.Context, userID primitive.ObjectID, assigned *primitive.ObjectID) (*primitive.ObjectID, error) {
	if assigned != nil {
		return assigned, nil
	}
	c, err := s.GetByChief(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}
