// internal/app/features/profile/handler.go
package profile

import (
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own account under /profile.
type Handler struct {
	Users    *userstore.Store
	Clubs    *clubstore.Store
	Verifier *auth.Verifier
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, verifier *auth.Verifier, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Clubs:    clubstore.New(db),
		Verifier: verifier,
		AuditLog: audit,
		Log:      logger,
	}
}
