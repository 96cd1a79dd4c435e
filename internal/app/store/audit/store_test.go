package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	before := time.Now().Add(-time.Second)
	if err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": "ana@example.com"},
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if e.CreatedAt.Before(before) {
		t.Error("expected CreatedAt to be set")
	}
	if e.Details["email"] != "ana@example.com" {
		t.Errorf("details not stored: %v", e.Details)
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := primitive.NewObjectID()
	for _, ev := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventGroupCreated, ClubID: &club, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventGroupDeleted, ClubID: &club, Success: true},
	} {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	admin, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAdmin})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(admin) != 2 {
		t.Errorf("expected 2 admin events, got %d", len(admin))
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{ClubID: &club, EventType: audit.EventGroupDeleted})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 group_deleted event, got %d", n)
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	since := time.Now().Add(-time.Minute)
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedNotApproved})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true})

	events, err := store.GetFailedLogins(ctx, since, 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 failed logins, got %d", len(events))
	}
}
