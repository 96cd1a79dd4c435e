// internal/app/features/adminusers/users.go
package adminusers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /admin/users?role=&status=&clubId=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.allow(ctx, w, r, accesspolicy.KindUsers, accesspolicy.ActionRead) {
		return
	}

	q := r.URL.Query()
	f := userstore.ListFilter{
		Role:   normalize.Role(q.Get("role")),
		Status: normalize.Status(q.Get("status")),
	}
	if f.Role != "" && !models.IsValidRole(f.Role) {
		respond.Error(w, r, h.Log, apperr.Validation("Unknown role."))
		return
	}
	if f.Status != "" && !models.IsValidStatus(f.Status) {
		respond.Error(w, r, h.Log, apperr.Validation("Unknown status."))
		return
	}
	if raw := normalize.ClubID(q.Get("clubId")); raw != "" {
		club, err := inputval.ObjectID("clubId", raw)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		f.ClubID = &club
	}

	users, err := h.Users.List(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load users.", err))
		return
	}
	respond.OK(w, users)
}

type updateUserRequest struct {
	Role   *string `json:"role" validate:"omitempty,role" label:"Role"`
	Status *string `json:"status" validate:"omitempty,oneof=pending approved rejected" label:"Status"`
	// ClubID "" removes the club assignment.
	ClubID *string `json:"clubId" validate:"omitempty,objectid" label:"Club"`
}

// ServeUpdate handles PATCH /admin/users/{id}. Changing the role needs the
// roles permission; status and club changes need the users permission.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "User not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req updateUserRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.Role != nil {
		role := normalize.Role(*req.Role)
		req.Role = &role
	}
	if req.Status != nil {
		status := normalize.Status(*req.Status)
		req.Status = &status
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}
	if req.Role == nil && req.Status == nil && req.ClubID == nil {
		respond.Error(w, r, h.Log, apperr.Validation("Nothing to update."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if req.Role != nil && !h.allow(ctx, w, r, accesspolicy.KindRoles, accesspolicy.ActionUpdate) {
		return
	}
	if (req.Status != nil || req.ClubID != nil) && !h.allow(ctx, w, r, accesspolicy.KindUsers, accesspolicy.ActionUpdate) {
		return
	}

	before, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found."))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load user.", err))
		return
	}

	upd := userstore.AdminUpdate{Role: req.Role, Status: req.Status}
	if req.ClubID != nil {
		if *req.ClubID == "" {
			upd.ClearClub = true
		} else {
			club, _ := inputval.ObjectID("clubId", *req.ClubID)
			if _, err := h.Clubs.GetByID(ctx, club); errors.Is(err, mongo.ErrNoDocuments) {
				respond.Error(w, r, h.Log, apperr.Validation("Club does not exist."))
				return
			} else if err != nil {
				respond.Error(w, r, h.Log, apperr.Server("Failed to load club.", err))
				return
			}
			upd.ClubID = &club
		}
	}

	after, err := h.Users.UpdateByAdmin(ctx, id, upd, auth.NewSessionID())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, r, h.Log, apperr.NotFound("User not found."))
			return
		}
		respond.Error(w, r, h.Log, apperr.Server("Failed to update user.", err))
		return
	}

	h.audit(ctx, r, me, before, after)
	if before.Status != after.Status && after.Status == models.StatusApproved && h.Notify != nil {
		h.Notify.Notify(ctx, after.ID, notifysvc.Notice{
			Type:    models.NotifModeration,
			Title:   "Account approved",
			Message: "Your account has been approved. Welcome!",
			Sender:  &me.ID,
		})
	}
	respond.OK(w, after)
}

func (h *Handler) audit(ctx context.Context, r *http.Request, me auth.Identity, before, after models.User) {
	log := func(event, from, to string) {
		affected := after.ID
		h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
			EventType: event,
			ActorID:   me.ID,
			ActorRole: me.Role,
			UserID:    &affected,
			ClubID:    after.ClubID,
			Details:   map[string]string{"from": from, "to": to},
		})
	}
	if before.Role != after.Role {
		log(audit.EventUserRoleChanged, before.Role, after.Role)
	}
	if before.Status != after.Status {
		log(audit.EventUserStatusChanged, before.Status, after.Status)
	}
	if hexOf(before.ClubID) != hexOf(after.ClubID) {
		log(audit.EventUserClubChanged, hexOf(before.ClubID), hexOf(after.ClubID))
	}
}

func hexOf(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
