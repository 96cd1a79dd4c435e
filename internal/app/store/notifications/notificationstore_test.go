package notificationstore_test

import (
	"testing"
	"time"

	notificationstore "github.com/dalemusser/clubhub/internal/app/store/notifications"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_ListNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, models.Notification{
			Recipient: me,
			Type:      models.NotifSystem,
			Title:     "t",
			Message:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	_, _ = store.Insert(ctx, models.Notification{Recipient: other, Type: models.NotifSystem, Title: "x"})

	got, err := store.List(ctx, me, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Message != "c" || got[2].Message != "a" {
		t.Errorf("not newest first: %q..%q", got[0].Message, got[2].Message)
	}

	if got, _ := store.List(ctx, me, 2); len(got) != 2 {
		t.Errorf("limit ignored: %d", len(got))
	}
}

func TestStore_MarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	ns, err := store.InsertMany(ctx, []models.Notification{
		{Recipient: me, Type: models.NotifMessage, Title: "1"},
		{Recipient: me, Type: models.NotifMessage, Title: "2"},
		{Recipient: other, Type: models.NotifMessage, Title: "3"},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	if ok, _ := store.MarkRead(ctx, ns[2].ID, me); ok {
		t.Error("should not mark another recipient's notification")
	}
	if ok, err := store.MarkRead(ctx, ns[0].ID, me); err != nil || !ok {
		t.Fatalf("MarkRead = %v, %v", ok, err)
	}
	if n, _ := store.CountUnread(ctx, me); n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}

	if n, err := store.MarkAllRead(ctx, me); err != nil || n != 1 {
		t.Errorf("MarkAllRead = %d, %v", n, err)
	}
	if n, _ := store.CountUnread(ctx, other); n != 1 {
		t.Errorf("other recipient should be untouched, unread = %d", n)
	}
}
