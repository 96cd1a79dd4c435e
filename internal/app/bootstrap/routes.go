// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminusersfeature "github.com/dalemusser/clubhub/internal/app/features/adminusers"
	auditlogfeature "github.com/dalemusser/clubhub/internal/app/features/auditlog"
	chatfeature "github.com/dalemusser/clubhub/internal/app/features/chat"
	clubsfeature "github.com/dalemusser/clubhub/internal/app/features/clubs"
	healthfeature "github.com/dalemusser/clubhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/clubhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/clubhub/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/clubhub/internal/app/features/notifications"
	pollsfeature "github.com/dalemusser/clubhub/internal/app/features/polls"
	profilefeature "github.com/dalemusser/clubhub/internal/app/features/profile"
	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	chatsvc "github.com/dalemusser/clubhub/internal/app/services/chat"
	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/mailer"
	"github.com/dalemusser/clubhub/internal/app/system/pushbus"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler builds the JSON API router. Every request passes through
// LoadIdentity, so handlers read the caller with auth.CurrentIdentity and
// feature routers decide which routes need a signed-in caller.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:     appCfg.JWTSecret,
		TTL:        appCfg.TokenTTL,
		CookieName: appCfg.TokenCookieName,
		Secure:     coreCfg.Env == "prod",
	}, userstore.New(db), logger)
	if err != nil {
		logger.Error("token verifier init failed", zap.Error(err))
		return nil, err
	}

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	// Realtime delivery goes through Redis when it is configured. Without
	// it notifications are still stored and listed, and the stream answers
	// 503.
	var (
		push   pushbus.Sender = pushbus.Noop{}
		stream pushbus.Subscriber
	)
	if deps.Redis != nil {
		bus := pushbus.NewRedis(deps.Redis, logger)
		push, stream = bus, bus
	}

	policy := accesspolicy.New(clubstore.New(db))
	notify := notifysvc.New(db, push, logger)
	chat := chatsvc.New(db, notify, logger)

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
	}, logger)
	limiter := ratelimit.NewLoginLimiter(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginEmailLimit, appCfg.LoginEmailWindow,
	)

	r := chi.NewRouter()
	r.Use(verifier.LoadIdentity)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, verifier, limiter, mail,
		loginfeature.NewResetTokens(appCfg.ResetKey), auditLogger, appCfg.BaseURL, logger)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(db, verifier, auditLogger, logger)
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))

	profileHandler := profilefeature.NewHandler(db, verifier, auditLogger, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	// Messaging
	chatHandler := chatfeature.NewHandler(chat, auditLogger, logger)
	r.Mount("/chat", chatfeature.Routes(chatHandler))

	notificationsHandler := notificationsfeature.NewHandler(db, stream, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

	// Club life
	pollsHandler := pollsfeature.NewHandler(db, policy, notify, auditLogger, logger)
	r.Mount("/polls", pollsfeature.Routes(pollsHandler))

	clubsHandler := clubsfeature.NewHandler(db, policy, auditLogger, logger)
	r.Mount("/clubs", clubsfeature.Routes(clubsHandler))

	// Administration
	adminHandler := adminusersfeature.NewHandler(db, chat, notify, policy, auditLogger, logger)
	r.Mount("/admin", adminusersfeature.Routes(adminHandler))

	auditHandler := auditlogfeature.NewHandler(db, logger)
	r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler))

	return r, nil
}
