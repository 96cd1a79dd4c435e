// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	Verifier *auth.Verifier
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, verifier *auth.Verifier, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Verifier: verifier,
		AuditLog: audit,
		Log:      logger,
	}
}

// ServeLogout handles POST /auth/logout. The cookie is always cleared; the
// stored session id is removed only if it still belongs to this session.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if me, ok := auth.CurrentIdentity(r); ok {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		if err := h.Users.ClearSessionID(ctx, me.ID, me.SessionID); err != nil {
			// The cookie is still cleared below.
			h.Log.Warn("logout: clear session id", zap.String("user_id", me.ID.Hex()), zap.Error(err))
		}
		h.AuditLog.Logout(ctx, r, me.ID)
	}

	h.Verifier.ClearCookie(w)
	respond.OK(w, map[string]bool{"loggedOut": true})
}
