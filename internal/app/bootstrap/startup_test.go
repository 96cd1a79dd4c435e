package bootstrap

import (
	"strings"
	"testing"
	"time"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "Admin@Example.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", u.Role)
	}
	if u.Status != models.StatusApproved {
		t.Errorf("expected status approved, got %q", u.Status)
	}
	if u.PasswordHash != "" {
		t.Error("expected bootstrap admin to have no password")
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateUserWithStatus(ctx, "Pending Member", models.RoleMember, models.StatusPending, nil)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, existing.Email, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if u.Role != models.RoleAdmin || u.Status != models.StatusApproved {
		t.Errorf("expected approved admin, got role=%q status=%q", u.Role, u.Status)
	}
	if u.SessionID != existing.SessionID {
		t.Error("promotion should not rotate the session")
	}
}

func TestEnsureAdmin_AlreadyAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateUser(ctx, "Admin", models.RoleAdmin, nil)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, existing.Email, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if !u.UpdatedAt.Equal(existing.UpdatedAt.Truncate(time.Millisecond)) {
		t.Error("expected admin to be left unchanged")
	}
}

func TestEnsureAdmin_BlankEmailIsNoop(t *testing.T) {
	if err := ensureAdmin(t.Context(), DBDeps{}, "", testLogger()); err != nil {
		t.Fatalf("ensureAdmin with blank email: %v", err)
	}
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:        "mongodb://localhost:27017",
		JWTSecret:       strings.Repeat("s", 32),
		ResetKey:        strings.Repeat("r", 32),
		AuditLogAuth:    "all",
		AuditLogAdmin:   "db",
		LoginIPLimit:    20,
		LoginEmailLimit: 5,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "http://nope" }, "invalid MongoDB URI"},
		{"short jwt secret", func(c *AppConfig) { c.JWTSecret = "short" }, "jwt_secret"},
		{"short reset key", func(c *AppConfig) { c.ResetKey = "short" }, "reset_key"},
		{"unknown audit mode", func(c *AppConfig) { c.AuditLogAdmin = "sometimes" }, "audit_log_admin"},
		{"zero login limit", func(c *AppConfig) { c.LoginEmailLimit = 0 }, "rate limits"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestStartup_KeepsReadNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := models.Notification{
		ID:        primitive.NewObjectID(),
		Recipient: primitive.NewObjectID(),
		Type:      models.NotifMessage,
		Title:     "read long ago",
		IsRead:    true,
		CreatedAt: time.Now().UTC().Add(-365 * 24 * time.Hour),
	}
	if _, err := db.Collection("notifications").InsertOne(ctx, old); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := Startup(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	if err := Shutdown(ctx, &config.CoreConfig{}, validConfig(), DBDeps{}, testLogger()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	n, err := db.Collection("notifications").CountDocuments(ctx, bson.M{"_id": old.ID})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("expected old read notification to survive startup, found %d", n)
	}
}

func TestConfigKeys_NoNotificationPruning(t *testing.T) {
	for _, k := range appConfigKeys {
		if strings.HasPrefix(k.Name, "notification_") {
			t.Errorf("unexpected config key %q", k.Name)
		}
	}
}
