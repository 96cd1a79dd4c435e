package chat_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/features/chat"
	chatsvc "github.com/dalemusser/clubhub/internal/app/services/chat"
	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	svc := chatsvc.New(db, notifysvc.New(db, nil, log), log)
	h := chat.NewHandler(svc, nil, log)
	return chat.Routes(h), testutil.NewFixtures(t, db), db
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	router, _, _ := newRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/unread-count", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDirectMessageFlow(t *testing.T) {
	router, fx, _ := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m1 := fx.CreateUser(ctx, "M1", models.RoleMember, nil)
	m2 := fx.CreateUser(ctx, "M2", models.RoleMember, nil)

	req := testutil.JSONRequest(t, http.MethodPost, "/messages", map[string]string{
		"recipientId": m2.ID.Hex(),
		"message":     "hello",
	})
	rec := serve(router, testutil.WithIdentity(req, testutil.IdentityOf(m1)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("send status = %d body=%s", rec.Code, rec.Body.String())
	}
	var sent models.DirectMessage
	testutil.DecodeJSON(t, rec, &sent)

	var unread struct {
		Count  int64 `json:"count"`
		Direct int64 `json:"direct"`
		Groups int64 `json:"groups"`
	}
	rec = serve(router, testutil.WithIdentity(httptest.NewRequest(http.MethodGet, "/unread-count", nil), testutil.IdentityOf(m2)))
	testutil.DecodeJSON(t, rec, &unread)
	if unread.Count != 1 || unread.Direct != 1 {
		t.Errorf("unread = %+v, want 1 direct", unread)
	}

	rec = serve(router, testutil.WithIdentity(httptest.NewRequest(http.MethodGet, "/messages?recipientId="+m1.ID.Hex(), nil), testutil.IdentityOf(m2)))
	if rec.Code != http.StatusOK {
		t.Fatalf("thread status = %d", rec.Code)
	}
	rec = serve(router, testutil.WithIdentity(httptest.NewRequest(http.MethodGet, "/unread-count", nil), testutil.IdentityOf(m2)))
	testutil.DecodeJSON(t, rec, &unread)
	if unread.Count != 0 {
		t.Errorf("unread after reading = %+v", unread)
	}

	del := testutil.JSONRequest(t, http.MethodPatch, "/messages/"+sent.ID.Hex(), map[string]bool{"isDeleted": true})
	if rec := serve(router, testutil.WithIdentity(del, testutil.IdentityOf(m1))); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	del = testutil.JSONRequest(t, http.MethodPatch, "/messages/"+sent.ID.Hex(), map[string]bool{"isDeleted": true})
	if rec := serve(router, testutil.WithIdentity(del, testutil.IdentityOf(m1))); rec.Code != http.StatusOK {
		t.Errorf("second delete status = %d, want 200", rec.Code)
	}

	edit := testutil.JSONRequest(t, http.MethodPatch, "/messages/"+sent.ID.Hex(), map[string]string{"message": "again"})
	rec = serve(router, testutil.WithIdentity(edit, testutil.IdentityOf(m1)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("edit after delete status = %d, want 400", rec.Code)
	}
	var errBody struct {
		Error string `json:"error"`
	}
	testutil.DecodeJSON(t, rec, &errBody)
	if errBody.Error == "" {
		t.Error("expected an error message")
	}
}

func TestSendMessage_BadInput(t *testing.T) {
	router, fx, _ := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m1 := fx.CreateUser(ctx, "M1", models.RoleMember, nil)
	me := testutil.IdentityOf(m1)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"no target", map[string]string{"message": "hi"}, http.StatusBadRequest},
		{"both targets", map[string]string{"message": "hi", "recipientId": m1.ID.Hex(), "groupId": m1.ID.Hex()}, http.StatusBadRequest},
		{"empty message", map[string]string{"recipientId": m1.ID.Hex()}, http.StatusBadRequest},
		{"bad id", map[string]string{"message": "hi", "recipientId": "zzz"}, http.StatusBadRequest},
		{"unknown recipient", map[string]string{"message": "hi", "recipientId": primitive.NewObjectID().Hex()}, http.StatusNotFound},
		{"unknown group", map[string]string{"message": "hi", "groupId": primitive.NewObjectID().Hex()}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.JSONRequest(t, http.MethodPost, "/messages", tt.body)
			rec := serve(router, testutil.WithIdentity(req, me))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCreateGroup_MemberForbidden(t *testing.T) {
	router, fx, db := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateUser(ctx, "M", models.RoleMember, nil)
	other := fx.CreateUser(ctx, "Other", models.RoleMember, nil)

	req := testutil.JSONRequest(t, http.MethodPost, "/groups", map[string]any{
		"name":    "Secret club",
		"members": []string{other.ID.Hex()},
	})
	rec := serve(router, testutil.WithIdentity(req, testutil.IdentityOf(m)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if n, _ := db.Collection("chat_groups").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("groups persisted: %d", n)
	}
}

func TestCreateGroup_MemberForbiddenBeforeValidation(t *testing.T) {
	router, fx, _ := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateUser(ctx, "M", models.RoleMember, nil)

	bodies := []map[string]any{
		{"name": ""},
		{"name": "Board", "members": []string{"not-an-id"}},
	}
	for _, body := range bodies {
		req := testutil.JSONRequest(t, http.MethodPost, "/groups", body)
		rec := serve(router, testutil.WithIdentity(req, testutil.IdentityOf(m)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("body %v: status = %d, want 403", body, rec.Code)
		}
	}
}

func TestGroupLifecycle(t *testing.T) {
	router, fx, _ := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", models.RolePresident, nil)
	pres := fx.CreateUser(ctx, "Other President", models.RolePresident, nil)
	m := fx.CreateUser(ctx, "M", models.RoleMember, nil)

	req := testutil.JSONRequest(t, http.MethodPost, "/groups", map[string]any{
		"name":    "Board",
		"members": []string{pres.ID.Hex(), m.ID.Hex()},
	})
	rec := serve(router, testutil.WithIdentity(req, testutil.IdentityOf(owner)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var g models.ChatGroup
	testutil.DecodeJSON(t, rec, &g)
	if !g.IsAdmin(owner.ID) || !g.HasMember(owner.ID) {
		t.Errorf("creator not admin member: %+v", g)
	}

	upd := testutil.JSONRequest(t, http.MethodPatch, "/groups/"+g.ID.Hex(), map[string]string{"name": "Mine now"})
	rec = serve(router, testutil.WithIdentity(upd, testutil.IdentityOf(pres)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin president update status = %d, want 403", rec.Code)
	}

	promote := testutil.JSONRequest(t, http.MethodPut, "/groups/"+g.ID.Hex()+"/admins/"+pres.ID.Hex(), map[string]bool{"admin": true})
	if rec := serve(router, testutil.WithIdentity(promote, testutil.IdentityOf(owner))); rec.Code != http.StatusOK {
		t.Fatalf("promote status = %d body=%s", rec.Code, rec.Body.String())
	}

	upd = testutil.JSONRequest(t, http.MethodPatch, "/groups/"+g.ID.Hex(), map[string]string{"name": "Shared"})
	rec = serve(router, testutil.WithIdentity(upd, testutil.IdentityOf(pres)))
	if rec.Code != http.StatusOK {
		t.Errorf("group-admin president update status = %d", rec.Code)
	}

	var summaries []struct {
		ID          primitive.ObjectID `json:"id"`
		Name        string             `json:"name"`
		UnreadCount int64              `json:"unreadCount"`
	}
	rec = serve(router, testutil.WithIdentity(httptest.NewRequest(http.MethodGet, "/groups", nil), testutil.IdentityOf(m)))
	testutil.DecodeJSON(t, rec, &summaries)
	if len(summaries) != 1 || summaries[0].Name != "Shared" {
		t.Errorf("summaries = %+v", summaries)
	}

	rec = serve(router, testutil.WithIdentity(httptest.NewRequest(http.MethodDelete, "/groups/"+g.ID.Hex(), nil), testutil.IdentityOf(m)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member delete status = %d, want 403", rec.Code)
	}
	rec = serve(router, testutil.WithIdentity(httptest.NewRequest(http.MethodDelete, "/groups/"+g.ID.Hex(), nil), testutil.IdentityOf(owner)))
	if rec.Code != http.StatusOK {
		t.Errorf("owner delete status = %d", rec.Code)
	}
	rec = serve(router, testutil.WithIdentity(httptest.NewRequest(http.MethodDelete, "/groups/not-an-id", nil), testutil.IdentityOf(owner)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("malformed id status = %d, want 404", rec.Code)
	}
}
