// internal/app/features/login/reset.go
package login

import (
	"context"
	"crypto/sha256"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/mailer"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/passwords"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ResetTTL is how long a password reset link stays valid.
const ResetTTL = time.Hour

const resetTokenName = "pwreset"

var errBadResetToken = apperr.Validation("This reset link is invalid or has expired.")

// ResetTokens signs and encrypts password reset tokens. A token carries the
// user id and a single-use nonce that is also stored on the user.
type ResetTokens struct {
	codec *securecookie.SecureCookie
}

type resetPayload struct {
	UserID string `json:"u"`
	Nonce  string `json:"n"`
}

// NewResetTokens derives the signing and encryption keys from key.
func NewResetTokens(key string) *ResetTokens {
	hashKey := sha256.Sum256([]byte("clubhub-reset-hash:" + key))
	blockKey := sha256.Sum256([]byte("clubhub-reset-block:" + key))
	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.MaxAge(int(ResetTTL / time.Second))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &ResetTokens{codec: codec}
}

func (t *ResetTokens) encode(userID primitive.ObjectID, nonce string) (string, error) {
	return t.codec.Encode(resetTokenName, resetPayload{UserID: userID.Hex(), Nonce: nonce})
}

func (t *ResetTokens) decode(token string) (primitive.ObjectID, string, error) {
	var p resetPayload
	if err := t.codec.Decode(resetTokenName, token, &p); err != nil {
		return primitive.NilObjectID, "", err
	}
	id, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	return id, p.Nonce, nil
}

type resetRequest struct {
	Email string `json:"email" validate:"required,max=254,email" label:"Email"`
}

const resetRequestedMsg = "If an account exists for that email, a reset link has been sent."

// HandleResetRequest handles POST /auth/password-reset. The answer is the
// same whether or not the address matches an account.
func (h *Handler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.Email = normalize.Email(req.Email)
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Email); !ok {
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": msg})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.sendReset(ctx, r, req.Email)
	respond.OK(w, map[string]string{"message": resetRequestedMsg})
}

// sendReset mails a reset link when email matches an account. Failures are
// logged only.
func (h *Handler) sendReset(ctx context.Context, r *http.Request, email string) {
	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return
	}
	if err != nil {
		h.Log.Warn("password reset lookup failed", zap.Error(err))
		return
	}

	nonce := uuid.NewString()
	token, err := h.Resets.encode(u.ID, nonce)
	if err != nil {
		h.Log.Warn("password reset token encode failed", zap.Error(err))
		return
	}
	if err := h.Users.SetResetNonce(ctx, u.ID, nonce); err != nil {
		h.Log.Warn("password reset nonce store failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		return
	}

	link := strings.TrimRight(h.BaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	if err := h.Mailer.Send(mailer.PasswordReset(u.Email, u.FullName, link)); err != nil {
		h.Log.Warn("password reset mail failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		return
	}
	h.AuditLog.PasswordResetRequested(ctx, r, u.ID)
}

type resetConfirmRequest struct {
	Token    string `json:"token" validate:"required" label:"Token"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// HandleResetConfirm handles POST /auth/password-reset/confirm. The nonce is
// consumed in the same update that stores the new hash, so a token works
// once. Existing sessions end.
func (h *Handler) HandleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	uid, nonce, err := h.Resets.decode(req.Token)
	if err != nil {
		h.Log.Debug("reset token rejected", zap.Error(err))
		respond.Error(w, r, h.Log, errBadResetToken)
		return
	}
	if err := passwords.Validate(req.Password); err != nil {
		respond.Error(w, r, h.Log, apperr.Validation(err.Error()))
		return
	}
	hash, err := passwords.Hash(req.Password)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ok, err := h.Users.ConsumeResetNonce(ctx, uid, nonce, hash, auth.NewSessionID())
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("", err))
		return
	}
	if !ok {
		respond.Error(w, r, h.Log, errBadResetToken)
		return
	}

	h.AuditLog.PasswordResetCompleted(ctx, r, uid)
	respond.OK(w, map[string]bool{"reset": true})
}
