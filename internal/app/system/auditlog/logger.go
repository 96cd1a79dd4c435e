// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config selects where each category is recorded:
// "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off".
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to the audit_events collection and to zap.
// A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ClubID != nil {
		fields = append(fields, zap.String("club_id", event.ClubID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's setting. Store failures are
// logged and swallowed.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func authEvent(r *http.Request, eventType string, userID *primitive.ObjectID, success bool, reason string, details map[string]string) audit.Event {
	return audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: reason,
		Details:       details,
	}
}

// --- Authentication events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginSuccess, &userID, true, "", map[string]string{"email": email}))
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedUserNotFound, nil, false, "user not found",
		map[string]string{"attempted_email": email}))
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedWrongPassword, &userID, false, "wrong password",
		map[string]string{"email": email}))
}

func (l *Logger) LoginFailedNotApproved(ctx context.Context, r *http.Request, userID primitive.ObjectID, status string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedNotApproved, &userID, false, "account "+status, nil))
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedRateLimit, nil, false, "rate limited",
		map[string]string{"attempted_email": email}))
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventLogout, &userID, true, "", nil))
}

func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordResetRequested, &userID, true, "", nil))
}

func (l *Logger) PasswordResetCompleted(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordResetCompleted, &userID, true, "", nil))
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordChanged, &userID, true, "", nil))
}

// --- Admin events ---

// AdminAction describes a successful administrative change.
type AdminAction struct {
	EventType string
	ActorID   primitive.ObjectID
	ActorRole string
	UserID    *primitive.ObjectID // affected user, if any
	ClubID    *primitive.ObjectID
	Details   map[string]string
}

// Admin records an administrative change made by an authenticated actor.
func (l *Logger) Admin(ctx context.Context, r *http.Request, a AdminAction) {
	if l == nil {
		return
	}
	details := map[string]string{"actor_role": a.ActorRole}
	for k, v := range a.Details {
		details[k] = v
	}
	actor := a.ActorID
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: a.EventType,
		ActorID:   &actor,
		UserID:    a.UserID,
		ClubID:    a.ClubID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}
