// internal/app/features/login/handler.go
package login

import (
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/mailer"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves sign-in and password reset under /auth.
type Handler struct {
	Users    *userstore.Store
	Verifier *auth.Verifier
	Limiter  *ratelimit.LoginLimiter
	Mailer   mailer.Sender
	Resets   *ResetTokens
	AuditLog *auditlog.Logger
	BaseURL  string // prefix for reset links, e.g. "https://clubhub.example.org"
	Log      *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	verifier *auth.Verifier,
	limiter *ratelimit.LoginLimiter,
	mail mailer.Sender,
	resets *ResetTokens,
	audit *auditlog.Logger,
	baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Verifier: verifier,
		Limiter:  limiter,
		Mailer:   mail,
		Resets:   resets,
		AuditLog: audit,
		BaseURL:  baseURL,
		Log:      logger,
	}
}
