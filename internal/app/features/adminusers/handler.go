// internal/app/features/adminusers/handler.go
package adminusers

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	chatsvc "github.com/dalemusser/clubhub/internal/app/services/chat"
	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves user administration and message moderation under /admin.
type Handler struct {
	Users    *userstore.Store
	Clubs    *clubstore.Store
	Chat     *chatsvc.Service
	Notify   *notifysvc.Service
	Policy   *accesspolicy.Policy
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, chat *chatsvc.Service, notify *notifysvc.Service, policy *accesspolicy.Policy, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Clubs:    clubstore.New(db),
		Chat:     chat,
		Notify:   notify,
		Policy:   policy,
		AuditLog: auditLog,
		Log:      logger,
	}
}

// allow answers 403 unless the policy permits action on kind.
func (h *Handler) allow(ctx context.Context, w http.ResponseWriter, r *http.Request, kind accesspolicy.Kind, action accesspolicy.Action) bool {
	me, _ := auth.CurrentIdentity(r)
	d, err := h.Policy.Decide(ctx, me, kind, action, nil)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("", err))
		return false
	}
	if !d.Allowed {
		h.Log.Debug("admin access denied",
			zap.String("kind", string(kind)),
			zap.String("action", string(action)),
			zap.String("reason", d.Reason))
		respond.Error(w, r, h.Log, apperr.Forbidden("You do not have permission to do that."))
		return false
	}
	return true
}
