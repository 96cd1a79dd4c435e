package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when the folded email is already taken.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"president"|"national"|"member"`)
	errBadStatus      = errors.New(`status must be "pending"|"approved"|"rejected"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user. Returns mongo.ErrNoDocuments when missing.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, err
}

// GetByEmail looks up a user by folded email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&u)
	return u, err
}

// Exists reports whether a user with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// ExistingIDs returns the subset of ids that belong to existing users.
func (s *Store) ExistingIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}

// Create inserts a new user. Status defaults to pending.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.TrimSpace(u.Email)
	u.EmailCI = text.Fold(u.Email)
	if u.Status == "" {
		u.Status = models.StatusPending
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !models.IsValidStatus(u.Status) {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ListFilter narrows List. Zero fields are ignored.
type ListFilter struct {
	Role   string
	Status string
	ClubID *primitive.ObjectID
	Limit  int64
}

// List returns users sorted by name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.ClubID != nil {
		q["club_id"] = *f.ClubID
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	cur, err := s.c.Find(ctx, q, options.Find().
		SetSort(bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// NamesByID maps each existing id in ids to the user's full name.
func (s *Store) NamesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "full_name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		names[row.ID] = row.FullName
	}
	return names, cur.Err()
}

// AdminIDs returns the ids of every admin account.
func (s *Store) AdminIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"role": models.RoleAdmin},
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

// SetSessionID records the single active session for id. The last login wins.
func (s *Store) SetSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"session_id": sessionID, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ClearSessionID removes the active session only if it is still sessionID,
// so a logout from an old device cannot end a newer session.
func (s *Store) ClearSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "session_id": sessionID},
		bson.M{"$unset": bson.M{"session_id": ""}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	return err
}

// AdminUpdate holds the account fields an administrator may change.
// Nil fields are left alone.
type AdminUpdate struct {
	Role      *string
	Status    *string
	ClubID    *primitive.ObjectID
	ClearClub bool
}

// UpdateByAdmin applies upd and returns the updated user. When the status
// becomes anything other than approved the session id is rotated so
// existing tokens stop working.
func (s *Store) UpdateByAdmin(ctx context.Context, id primitive.ObjectID, upd AdminUpdate, newSessionID string) (models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.Role != nil {
		if !models.IsValidRole(*upd.Role) {
			return models.User{}, errBadRole
		}
		set["role"] = *upd.Role
	}
	if upd.Status != nil {
		if !models.IsValidStatus(*upd.Status) {
			return models.User{}, errBadStatus
		}
		set["status"] = *upd.Status
		if *upd.Status != models.StatusApproved {
			set["session_id"] = newSessionID
		}
	}
	switch {
	case upd.ClearClub:
		unset["club_id"] = ""
	case upd.ClubID != nil:
		set["club_id"] = *upd.ClubID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	return u, err
}

// ChangePassword stores a new password hash and session id and drops any
// outstanding reset link.
func (s *Store) ChangePassword(ctx context.Context, id primitive.ObjectID, passwordHash, newSessionID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"session_id":    newSessionID,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{"reset_nonce": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetResetNonce stores the nonce embedded in an outstanding reset token.
func (s *Store) SetResetNonce(ctx context.Context, id primitive.ObjectID, nonce string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"reset_nonce": nonce, "updated_at": time.Now().UTC()}})
	return err
}

// ConsumeResetNonce sets a new password hash if nonce is still the
// outstanding one, clearing it and rotating the session in the same
// update. It reports whether the nonce was consumed.
func (s *Store) ConsumeResetNonce(ctx context.Context, id primitive.ObjectID, nonce, passwordHash, newSessionID string) (bool, error) {
	if nonce == "" {
		return false, nil
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "reset_nonce": nonce},
		bson.M{
			"$set": bson.M{
				"password_hash": passwordHash,
				"session_id":    newSessionID,
				"updated_at":    time.Now().UTC(),
			},
			"$unset": bson.M{"reset_nonce": ""},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
