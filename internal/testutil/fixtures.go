package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures inserts test documents directly, bypassing store validation.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database { return f.db }

// CreateUser inserts an approved user with the given role and an active
// session id. club may be nil.
func (f *Fixtures) CreateUser(ctx context.Context, name, role string, club *primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUserWithStatus(ctx, name, role, models.StatusApproved, club)
}

// CreateUserWithStatus is CreateUser with an explicit approval status.
func (f *Fixtures) CreateUserWithStatus(ctx context.Context, name, role, status string, club *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	id := primitive.NewObjectID()
	email := "user." + id.Hex() + "@example.com"
	u := models.User{
		ID:        id,
		FullName:  name,
		Email:     email,
		EmailCI:   text.Fold(email),
		Role:      role,
		Status:    status,
		ClubID:    club,
		SessionID: uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateClub inserts a club. chief may be nil.
func (f *Fixtures) CreateClub(ctx context.Context, name, slug string, chief *primitive.ObjectID) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Club{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Slug:        slug,
		ChiefUserID: chief,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("clubs").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}
	return c
}

// CreateChatGroup inserts a group with the given members and admins.
func (f *Fixtures) CreateChatGroup(ctx context.Context, name string, createdBy primitive.ObjectID, members, admins []primitive.ObjectID) models.ChatGroup {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.ChatGroup{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Members:   members,
		Admins:    admins,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("chat_groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test chat group: %v", err)
	}
	return g
}

// CreatePoll inserts an open poll with zero tallies.
func (f *Fixtures) CreatePoll(ctx context.Context, question string, createdBy primitive.ObjectID, club *primitive.ObjectID, options ...string) models.Poll {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Poll{
		ID:        primitive.NewObjectID(),
		ClubID:    club,
		Question:  question,
		Voters:    []string{},
		Status:    models.PollOpen,
		IsPublic:  true,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, o := range options {
		p.Options = append(p.Options, models.PollOption{Text: o})
	}
	if _, err := f.db.Collection("polls").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test poll: %v", err)
	}
	return p
}
