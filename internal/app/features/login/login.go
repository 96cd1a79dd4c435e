// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/passwords"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errBadCredentials = apperr.Unauthenticated("Invalid email or password.")

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type loginResponse struct {
	Role string `json:"role"`
}

// HandleLogin handles POST /auth/login. A successful sign-in writes a new
// session id, which ends every other session of the account.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.Email = normalize.Email(req.Email)
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, req.Email)
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": msg})
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("", err))
		return
	}

	if !passwords.Check(u.PasswordHash, req.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, req.Email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}

	if u.Role != models.RoleAdmin && u.Status != models.StatusApproved {
		h.AuditLog.LoginFailedNotApproved(ctx, r, u.ID, u.Status)
		msg := "Your account is awaiting approval."
		if u.Status == models.StatusRejected {
			msg = "Your account request was not approved."
		}
		respond.Error(w, r, h.Log, apperr.Forbidden(msg))
		return
	}

	sid := auth.NewSessionID()
	if err := h.Users.SetSessionID(ctx, u.ID, sid); err != nil {
		respond.Error(w, r, h.Log, apperr.Server("", err))
		return
	}
	token, err := h.Verifier.Issue(u, sid)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("", err))
		return
	}

	h.Verifier.SetCookie(w, token)
	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, req.Email)
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))

	respond.OK(w, loginResponse{Role: u.Role})
}
