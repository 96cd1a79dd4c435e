package logout_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/features/logout"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeLogout_ClearsCookieAndSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	v, err := auth.NewVerifier(auth.Config{Secret: strings.Repeat("s", 32)}, users, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	router := logout.Routes(logout.NewHandler(db, v, nil, zap.NewNop()))

	u := fx.CreateUser(ctx, "M", models.RoleMember, nil)
	token, err := v.Issue(u, u.SessionID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := testutil.WithIdentity(httptest.NewRequest(http.MethodPost, "/", nil), testutil.IdentityOf(u))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("token cookie not cleared")
	}

	if _, err := v.Verify(ctx, token); err == nil {
		t.Error("token still valid after logout")
	}
}

func TestServeLogout_SignedOut(t *testing.T) {
	db := testutil.SetupTestDB(t)
	v, err := auth.NewVerifier(auth.Config{Secret: strings.Repeat("s", 32)}, userstore.New(db), zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	router := logout.Routes(logout.NewHandler(db, v, nil, zap.NewNop()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
