// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/passwords"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// profileResponse is the caller's account plus the club they act for,
// which for a president may come from the chief link instead of ClubID.
type profileResponse struct {
	models.User
	EffectiveClubID string `json:"effectiveClubId,omitempty"`
	PasswordRules   string `json:"passwordRules"`
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentIdentity(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found."))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load profile.", err))
		return
	}

	resp := profileResponse{User: u, PasswordRules: passwords.Rules()}
	club, err := h.Clubs.EffectiveClub(ctx, u.ID, u.ClubID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to resolve club.", err))
		return
	}
	if club != nil {
		resp.EffectiveClubID = club.Hex()
	}
	respond.OK(w, resp)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" label:"Current password"`
	NewPassword     string `json:"newPassword" validate:"required" label:"New password"`
}

// HandleChangePassword handles PATCH /profile/password. The session is
// rotated, so every other device is signed out and this one receives a
// fresh token.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentIdentity(r)

	var req changePasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found."))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load profile.", err))
		return
	}

	if !passwords.Check(u.PasswordHash, req.CurrentPassword) {
		respond.Error(w, r, h.Log, apperr.Validation("Current password is incorrect."))
		return
	}
	if err := passwords.Validate(req.NewPassword); err != nil {
		respond.Error(w, r, h.Log, apperr.Validation(err.Error()))
		return
	}
	if passwords.Check(u.PasswordHash, req.NewPassword) {
		respond.Error(w, r, h.Log, apperr.Validation("New password cannot be the same as your current password."))
		return
	}

	hash, err := passwords.Hash(req.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to update password.", err))
		return
	}
	sid := auth.NewSessionID()
	if err := h.Users.ChangePassword(ctx, u.ID, hash, sid); err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to update password.", err))
		return
	}
	token, err := h.Verifier.Issue(u, sid)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to update password.", err))
		return
	}
	h.Verifier.SetCookie(w, token)

	h.AuditLog.PasswordChanged(ctx, r, u.ID)
	h.Log.Info("password changed", zap.String("user_id", u.ID.Hex()))
	respond.OK(w, map[string]bool{"changed": true})
}
