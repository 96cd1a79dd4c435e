// internal/app/features/chat/handler.go
package chat

import (
	chatsvc "github.com/dalemusser/clubhub/internal/app/services/chat"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the /chat API.
type Handler struct {
	Chat     *chatsvc.Service
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(svc *chatsvc.Service, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Chat:     svc,
		AuditLog: auditLog,
		Log:      logger,
	}
}
