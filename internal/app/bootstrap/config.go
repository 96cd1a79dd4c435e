// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSecretLen is the shortest accepted jwt_secret and reset_key.
const minSecretLen = 32

// appConfigKeys defines ClubHub's configuration keys. Each can come from a
// config file (jwt_secret), the environment (CLUBHUB_JWT_SECRET) or a flag
// (--jwt_secret).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "clubhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: "", Desc: "HMAC key for session tokens (at least 32 characters)"},
	{Name: "token_cookie_name", Default: "token", Desc: "Session token cookie name"},
	{Name: "token_ttl", Default: "168h", Desc: "Session token lifetime (e.g., 24h, 168h)"},
	{Name: "reset_key", Default: "", Desc: "Key for password reset links (at least 32 characters)"},

	// Redis push bus
	{Name: "redis_addr", Default: "", Desc: "Redis address for realtime notifications (blank disables)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Email/SMTP
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@clubhub.local", Desc: "From email address"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Login rate limits
	{Name: "login_ip_limit", Default: 20, Desc: "Login attempts allowed per client IP per window"},
	{Name: "login_ip_window", Default: "15m", Desc: "Per-IP login window"},
	{Name: "login_email_limit", Default: 5, Desc: "Failed login attempts allowed per email per window"},
	{Name: "login_email_window", Default: "15m", Desc: "Per-email login window"},

	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and ClubHub's AppConfig.
// Precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLUBHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:       appValues.String("jwt_secret"),
		TokenCookieName: appValues.String("token_cookie_name"),
		TokenTTL:        appValues.Duration("token_ttl", 7*24*time.Hour),
		ResetKey:        appValues.String("reset_key"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		BaseURL: appValues.String("base_url"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", 15*time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 15*time.Minute),

		AdminEmail: appValues.String("admin_email"),
	}

	// A blank reset_key reuses the jwt secret.
	if appCfg.ResetKey == "" {
		appCfg.ResetKey = appCfg.JWTSecret
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configs that cannot run safely: a malformed Mongo
// URI, a short jwt secret or reset key, or an unknown audit mode.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.JWTSecret) < minSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d characters (got %d)", minSecretLen, len(appCfg.JWTSecret))
	}
	if len(appCfg.ResetKey) < minSecretLen {
		return fmt.Errorf("reset_key must be at least %d characters (got %d)", minSecretLen, len(appCfg.ResetKey))
	}
	for name, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all|db|log|off (got %q)", name, mode)
		}
	}
	if appCfg.LoginIPLimit <= 0 || appCfg.LoginEmailLimit <= 0 {
		return fmt.Errorf("login rate limits must be positive")
	}
	return nil
}
