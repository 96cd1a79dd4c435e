package notifysvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	notificationstore "github.com/dalemusser/clubhub/internal/app/store/notifications"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recordingPush struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (p *recordingPush) Push(_ context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return p.err
}

func TestNotify_InsertsAndPushes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	push := &recordingPush{}
	svc := notifysvc.New(db, push, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	to := primitive.NewObjectID()
	svc.Notify(ctx, to, notifysvc.Notice{
		Type:    models.NotifMessage,
		Title:   "<b>New</b> message",
		Message: "hi <script>alert(1)</script>",
	})

	got, _ := notificationstore.New(db).List(ctx, to, 0)
	if len(got) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(got))
	}
	if got[0].Title != "New message" || got[0].Message != "hi" {
		t.Errorf("not sanitised: %q / %q", got[0].Title, got[0].Message)
	}
	if len(push.sent) != 1 || push.sent[0].ID != got[0].ID {
		t.Errorf("push should receive the stored notification, got %+v", push.sent)
	}
}

func TestNotify_BestEffort(t *testing.T) {
	db := testutil.SetupTestDB(t)
	push := &recordingPush{err: errors.New("gateway down")}
	svc := notifysvc.New(db, push, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	to := primitive.NewObjectID()

	// A failing push still leaves the notification stored.
	svc.Notify(ctx, to, notifysvc.Notice{Type: models.NotifSystem, Title: "x"})
	if n, _ := notificationstore.New(db).CountUnread(ctx, to); n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}

	// A failing insert is swallowed and nothing is pushed.
	dead, stop := context.WithCancel(ctx)
	stop()
	svc.Notify(dead, to, notifysvc.Notice{Type: models.NotifSystem, Title: "y"})
	if len(push.sent) != 1 {
		t.Errorf("push attempts = %d, want 1", len(push.sent))
	}

	// Unknown types are dropped.
	svc.Notify(ctx, to, notifysvc.Notice{Type: "bogus", Title: "z"})
	if n, _ := notificationstore.New(db).CountUnread(ctx, to); n != 1 {
		t.Errorf("unknown type should not be stored, unread = %d", n)
	}
}

func TestNotifyAdmins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	svc := notifysvc.New(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a1 := fixtures.CreateUser(ctx, "Admin One", models.RoleAdmin, nil)
	a2 := fixtures.CreateUser(ctx, "Admin Two", models.RoleAdmin, nil)
	m := fixtures.CreateUser(ctx, "Member", models.RoleMember, nil)

	svc.NotifyAdmins(ctx, notifysvc.Notice{Type: models.NotifSubmission, Title: "New poll"})

	store := notificationstore.New(db)
	for _, u := range []models.User{a1, a2} {
		if n, _ := store.CountUnread(ctx, u.ID); n != 1 {
			t.Errorf("%s unread = %d, want 1", u.FullName, n)
		}
	}
	if n, _ := store.CountUnread(ctx, m.ID); n != 0 {
		t.Errorf("member should not be notified, got %d", n)
	}
}

func TestNotifyClubPresident(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	svc := notifysvc.New(db, nil, zap.NewNop())
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", models.RoleAdmin, nil)
	chief := fixtures.CreateUser(ctx, "Chief", models.RolePresident, nil)
	chiefClub := fixtures.CreateClub(ctx, "Chiefs", "chiefs", &chief.ID)

	assignedClub := fixtures.CreateClub(ctx, "Assigned", "assigned", nil)
	assigned := fixtures.CreateUser(ctx, "Assigned Pres", models.RolePresident, &assignedClub.ID)

	emptyClub := fixtures.CreateClub(ctx, "Empty", "empty", nil)

	n := notifysvc.Notice{Type: models.NotifPoll, Title: "poll"}
	svc.NotifyClubPresident(ctx, chiefClub.ID, admin.ID, n)
	svc.NotifyClubPresident(ctx, assignedClub.ID, admin.ID, n)
	svc.NotifyClubPresident(ctx, emptyClub.ID, admin.ID, n)
	svc.NotifyClubPresident(ctx, chiefClub.ID, chief.ID, n)

	if c, _ := store.CountUnread(ctx, chief.ID); c != 1 {
		t.Errorf("chief unread = %d, want 1 (self-action skipped)", c)
	}
	if c, _ := store.CountUnread(ctx, assigned.ID); c != 1 {
		t.Errorf("assigned president unread = %d, want 1", c)
	}
}
