package groupstore_test

import (
	"errors"
	"testing"
	"time"

	groupstore "github.com/dalemusser/clubhub/internal/app/store/groups"
	groupmsgstore "github.com/dalemusser/clubhub/internal/app/store/groupmessages"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndIDsForMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	g1, err := store.Create(ctx, models.ChatGroup{Name: "One", Members: []primitive.ObjectID{a, b}, Admins: []primitive.ObjectID{a}, CreatedBy: a})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _ = store.Create(ctx, models.ChatGroup{Name: "Two", Members: []primitive.ObjectID{a}, Admins: []primitive.ObjectID{a}, CreatedBy: a})

	ids, err := store.IDsForMember(ctx, b)
	if err != nil {
		t.Fatalf("IDsForMember: %v", err)
	}
	if len(ids) != 1 || ids[0] != g1.ID {
		t.Errorf("b groups = %v, want [%s]", ids, g1.ID.Hex())
	}
	if ids, _ := store.IDsForMember(ctx, a); len(ids) != 2 {
		t.Errorf("a groups = %d, want 2", len(ids))
	}
}

func TestStore_Summaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	msgs := groupmsgstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	busy, _ := store.Create(ctx, models.ChatGroup{Name: "Busy", Members: []primitive.ObjectID{a, b}, Admins: []primitive.ObjectID{a}, CreatedBy: a})
	quiet, _ := store.Create(ctx, models.ChatGroup{Name: "Quiet", Members: []primitive.ObjectID{a, b}, Admins: []primitive.ObjectID{a}, CreatedBy: a})

	_, _ = msgs.Insert(ctx, busy.ID, a, "one")
	_, _ = msgs.Insert(ctx, busy.ID, a, "two")
	_, _ = msgs.Insert(ctx, busy.ID, b, "mine")
	deleted, _ := msgs.Insert(ctx, busy.ID, a, "gone")
	_, _ = msgs.SoftDelete(ctx, deleted.ID, a)

	sums, err := store.Summaries(ctx, b)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2", len(sums))
	}
	if sums[0].ID != busy.ID {
		t.Errorf("active group should sort first, got %q", sums[0].Name)
	}
	if sums[0].UnreadCount != 2 {
		t.Errorf("busy unread = %d, want 2", sums[0].UnreadCount)
	}
	if sums[0].LastMessageAt == nil {
		t.Error("busy should have lastMessageAt")
	}
	if sums[1].ID != quiet.ID || sums[1].UnreadCount != 0 || sums[1].LastMessageAt != nil {
		t.Errorf("quiet summary unexpected: %+v", sums[1])
	}
}

func TestStore_Replace_Stale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	created, _ := store.Create(ctx, models.ChatGroup{Name: "G", Members: []primitive.ObjectID{a}, Admins: []primitive.ObjectID{a}, CreatedBy: a})
	prev, _ := store.GetByID(ctx, created.ID)

	next := prev
	next.Name = "Renamed"
	time.Sleep(2 * time.Millisecond)
	got, err := store.Replace(ctx, prev, next)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("name = %q", got.Name)
	}

	if _, err := store.Replace(ctx, prev, next); !errors.Is(err, groupstore.ErrStale) {
		t.Errorf("replace from stale copy should fail with ErrStale, got %v", err)
	}
}

func TestStore_SetAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b, outsider := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	g, _ := store.Create(ctx, models.ChatGroup{Name: "G", Members: []primitive.ObjectID{a, b}, Admins: []primitive.ObjectID{a}, CreatedBy: a})

	if _, err := store.SetAdmin(ctx, g.ID, outsider, true, &a); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("non-member promotion should not match, got %v", err)
	}
	if _, err := store.SetAdmin(ctx, g.ID, a, false, &a); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("removing the last admin should not match, got %v", err)
	}
	if _, err := store.SetAdmin(ctx, g.ID, b, true, &b); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("non-admin actor should not match, got %v", err)
	}

	got, err := store.SetAdmin(ctx, g.ID, b, true, &a)
	if err != nil {
		t.Fatalf("promote b: %v", err)
	}
	if !got.IsAdmin(b) {
		t.Errorf("b should be admin: %v", got.Admins)
	}
	got, err = store.SetAdmin(ctx, g.ID, b, true, nil)
	if err != nil || len(got.Admins) != 2 {
		t.Errorf("promotion should be idempotent: %v %v", err, got.Admins)
	}

	got, err = store.SetAdmin(ctx, g.ID, a, false, &b)
	if err != nil {
		t.Fatalf("demote a: %v", err)
	}
	if got.IsAdmin(a) || !got.IsAdmin(b) {
		t.Errorf("admins = %v, want only b", got.Admins)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	g, _ := store.Create(ctx, models.ChatGroup{Name: "G", Members: []primitive.ObjectID{a}, Admins: []primitive.ObjectID{a}, CreatedBy: a})
	if n, err := store.Delete(ctx, g.ID); err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if _, err := store.GetByID(ctx, g.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
