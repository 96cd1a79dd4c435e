// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the audit trail under /admin/audit.
type Handler struct {
	Events *audit.Store
	Users  *userstore.Store
	Clubs  *clubstore.Store
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Events: audit.New(db),
		Users:  userstore.New(db),
		Clubs:  clubstore.New(db),
		Log:    logger,
	}
}
