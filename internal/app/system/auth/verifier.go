// Package auth verifies session tokens and carries the resulting Identity
// through request contexts.
//
// A token is an HS256 JWT holding the user id, role, name and session id.
// Verification always re-reads the user so a newer login (new session id)
// or a status change revokes older tokens on their next request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultTTL is the lifetime of a session token and its cookie.
const DefaultTTL = 7 * 24 * time.Hour

var errInvalidToken = apperr.Unauthenticated("Session is invalid or expired. Please sign in again.")

// Claims is the JWT payload.
type Claims struct {
	UserID    string `json:"id"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// UserSource loads the authoritative user record. Implementations return
// mongo.ErrNoDocuments when the user does not exist.
type UserSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Config configures a Verifier.
type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool // mark the cookie Secure (production)
}

// Verifier issues and verifies session tokens.
type Verifier struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	users      UserSource
	log        *zap.Logger
	now        func() time.Time
}

// NewVerifier validates cfg and returns a Verifier.
func NewVerifier(cfg Config, users UserSource, log *zap.Logger) (*Verifier, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters (got %d)", len(cfg.Secret))
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		users:      users,
		log:        log,
		now:        time.Now,
	}, nil
}

// NewSessionID returns a fresh session id for a login.
func NewSessionID() string { return uuid.NewString() }

// Issue signs a token for u bound to sessionID.
func (v *Verifier) Issue(u models.User, sessionID string) (string, error) {
	now := v.now()
	claims := Claims{
		UserID:    u.ID.Hex(),
		Role:      u.Role,
		Name:      u.FullName,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// parse checks signature, algorithm and expiry.
func (v *Verifier) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Verify turns a token into an Identity. It fails with Unauthenticated when
// the token is missing, malformed, expired or superseded by a newer login,
// or when a non-admin account is not approved.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthenticated("Please sign in.")
	}
	claims, err := v.parse(token)
	if err != nil {
		return Identity{}, err
	}
	uid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Identity{}, errInvalidToken
	}

	u, err := v.users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Identity{}, errInvalidToken
	}
	if err != nil {
		return Identity{}, apperr.Server("", fmt.Errorf("load session user: %w", err))
	}
	if u.SessionID == "" || u.SessionID != claims.SessionID {
		return Identity{}, apperr.Unauthenticated("Signed in elsewhere. Please sign in again.")
	}
	if u.Role != models.RoleAdmin && u.Status != models.StatusApproved {
		return Identity{}, apperr.Unauthenticated("Account is not approved.")
	}

	return Identity{
		ID:        u.ID,
		Role:      u.Role,
		ClubID:    u.ClubID,
		SessionID: u.SessionID,
		Name:      u.FullName,
	}, nil
}

// TokenFromRequest reads the session cookie, falling back to a Bearer header.
func (v *Verifier) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(v.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// SetCookie writes the session cookie.
func (v *Verifier) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     v.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(v.ttl / time.Second),
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie.
func (v *Verifier) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     v.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
