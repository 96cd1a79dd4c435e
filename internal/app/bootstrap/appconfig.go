// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds ClubHub's app-level configuration. WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything specific to the
// membership platform lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session tokens
	JWTSecret       string        // HMAC key, at least 32 characters
	TokenCookieName string        // cookie carrying the session token
	TokenTTL        time.Duration // token and cookie lifetime

	// Password reset tokens (securecookie key material)
	ResetKey string

	// Redis push bus. Blank RedisAddr disables realtime delivery.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Email/SMTP. Blank MailSMTPHost logs mail instead of sending it.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// BaseURL prefixes links in outgoing mail.
	BaseURL string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Login rate limits
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration

	// AdminEmail is promoted to an approved admin on startup, or created
	// without a password when missing.
	AdminEmail string
}
