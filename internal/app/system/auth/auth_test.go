package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-must-be-32-chars-long!!"

type fakeUsers map[primitive.ObjectID]models.User

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func newVerifier(t *testing.T, users fakeUsers) *auth.Verifier {
	t.Helper()
	v, err := auth.NewVerifier(auth.Config{Secret: testSecret}, users, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func approvedUser(role string) models.User {
	club := primitive.NewObjectID()
	return models.User{
		ID:        primitive.NewObjectID(),
		FullName:  "Ana Example",
		Role:      role,
		Status:    models.StatusApproved,
		ClubID:    &club,
		SessionID: auth.NewSessionID(),
	}
}

func TestNewVerifier_ShortSecret(t *testing.T) {
	if _, err := auth.NewVerifier(auth.Config{Secret: "short"}, fakeUsers{}, nil); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	u := approvedUser(models.RoleMember)
	v := newVerifier(t, fakeUsers{u.ID: u})

	token, err := v.Issue(u, u.SessionID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.ID != u.ID || id.Role != models.RoleMember || id.ClubID == nil || *id.ClubID != *u.ClubID {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestVerify_RoleComesFromStore(t *testing.T) {
	u := approvedUser(models.RolePresident)
	users := fakeUsers{u.ID: u}
	v := newVerifier(t, users)
	token, _ := v.Issue(u, u.SessionID)

	demoted := u
	demoted.Role = models.RoleMember
	users[u.ID] = demoted

	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Role != models.RoleMember {
		t.Errorf("role = %q, want stored role member", id.Role)
	}
}

func TestVerify_Rejections(t *testing.T) {
	u := approvedUser(models.RoleMember)
	users := fakeUsers{u.ID: u}
	v := newVerifier(t, users)
	token, _ := v.Issue(u, u.SessionID)

	t.Run("empty token", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "")
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "not.a.jwt")
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := auth.NewVerifier(auth.Config{Secret: "another-secret-that-is-32-chars-long"}, users, nil)
		forged, _ := other.Issue(u, u.SessionID)
		_, err := v.Verify(context.Background(), forged)
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("got %v", err)
		}
	})

	t.Run("alg none", func(t *testing.T) {
		claims := auth.Claims{UserID: u.ID.Hex(), SessionID: u.SessionID,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
		unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		_, err := v.Verify(context.Background(), unsigned)
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		short, _ := auth.NewVerifier(auth.Config{Secret: testSecret, TTL: time.Nanosecond}, users, nil)
		expired, _ := short.Issue(u, u.SessionID)
		time.Sleep(1100 * time.Millisecond)
		_, err := v.Verify(context.Background(), expired)
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("got %v", err)
		}
	})

	t.Run("superseded session", func(t *testing.T) {
		relogged := u
		relogged.SessionID = auth.NewSessionID()
		users[u.ID] = relogged
		defer func() { users[u.ID] = u }()

		_, err := v.Verify(context.Background(), token)
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("got %v", err)
		}
	})

	t.Run("user deleted", func(t *testing.T) {
		delete(users, u.ID)
		defer func() { users[u.ID] = u }()

		_, err := v.Verify(context.Background(), token)
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("got %v", err)
		}
	})
}

func TestVerify_ApprovalGate(t *testing.T) {
	tests := []struct {
		role    string
		status  string
		wantErr bool
	}{
		{models.RoleMember, models.StatusPending, true},
		{models.RoleMember, models.StatusRejected, true},
		{models.RolePresident, models.StatusPending, true},
		{models.RoleMember, models.StatusApproved, false},
		{models.RoleAdmin, models.StatusPending, false},
		{models.RoleAdmin, models.StatusRejected, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.status, func(t *testing.T) {
			u := approvedUser(tt.role)
			u.Status = tt.status
			v := newVerifier(t, fakeUsers{u.ID: u})
			token, _ := v.Issue(u, u.SessionID)

			_, err := v.Verify(context.Background(), token)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	member := approvedUser(models.RoleMember)
	v := newVerifier(t, fakeUsers{member.ID: member})
	token, _ := v.Issue(member, member.SessionID)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name    string
		handler http.Handler
		cookie  string
		bearer  string
		want    int
	}{
		{"signed in via cookie", v.LoadIdentity(auth.RequireSignedIn(ok)), token, "", http.StatusOK},
		{"signed in via bearer", v.LoadIdentity(auth.RequireSignedIn(ok)), "", token, http.StatusOK},
		{"no token", v.LoadIdentity(auth.RequireSignedIn(ok)), "", "", http.StatusUnauthorized},
		{"bad token", v.LoadIdentity(auth.RequireSignedIn(ok)), "garbage", "", http.StatusUnauthorized},
		{"anonymous allowed without RequireSignedIn", v.LoadIdentity(ok), "garbage", "", http.StatusOK},
		{"wrong role", v.LoadIdentity(auth.RequireRole(models.RoleAdmin)(ok)), token, "", http.StatusForbidden},
		{"right role", v.LoadIdentity(auth.RequireRole(models.RoleAdmin, models.RoleMember)(ok)), token, "", http.StatusOK},
		{"role required but signed out", v.LoadIdentity(auth.RequireRole(models.RoleAdmin)(ok)), "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/chat/unread-count", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSetCookie_Attributes(t *testing.T) {
	v, _ := auth.NewVerifier(auth.Config{Secret: testSecret, Secure: true}, fakeUsers{}, nil)
	rec := httptest.NewRecorder()
	v.SetCookie(rec, "abc")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "token" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}
	if c.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Errorf("MaxAge = %d, want 7 days", c.MaxAge)
	}
}
