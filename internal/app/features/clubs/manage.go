// internal/app/features/clubs/manage.go
package clubs

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type createClubRequest struct {
	Name        string `json:"name" validate:"required,max=100" label:"Club name"`
	Slug        string `json:"slug" validate:"max=100" label:"Slug"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
	ChiefUserID string `json:"chiefUserId" validate:"omitempty,objectid" label:"Chief"`
}

// ServeCreate handles POST /clubs (admins only).
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	var req createClubRequest
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

	club := models.Club{
		Name:        htmlsanitize.PlainText(req.Name),
		Slug:        req.Slug,
		Description: htmlsanitize.PlainText(req.Description),
	}
	if req.ChiefUserID != "" {
		chief, _ := primitive.ObjectIDFromHex(req.ChiefUserID)
		if err := h.checkChief(ctx, chief); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		club.ChiefUserID = &chief
	}

	club, err := h.Clubs.Create(ctx, club)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventClubCreated,
		ActorID:   me.ID,
		ActorRole: me.Role,
		ClubID:    &club.ID,
		Details:   map[string]string{"name": club.Name, "slug": club.Slug},
	})
	respond.Created(w, club)
}

// checkChief requires the chief to be an existing president.
func (h *Handler) checkChief(ctx context.Context, id primitive.ObjectID) error {
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Validation("Chief must be an existing user.")
	}
	if err != nil {
		return apperr.Server("Failed to load user.", err)
	}
	if u.Role != models.RolePresident {
		return apperr.Validation("Chief must be a president.")
	}
	return nil
}

type updateClubRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100" label:"Club name"`
	Description *string `json:"description" validate:"omitempty,max=2000" label:"Description"`
}

// ServeUpdate handles PATCH /clubs/{id}. Presidents may edit their own
// club's profile.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "Club not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req updateClubRequest
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

	if !h.allow(ctx, w, r, accesspolicy.KindClubProfile, id) {
		return
	}

	var upd clubstore.ProfileUpdate
	if req.Name != nil {
		name := htmlsanitize.PlainText(*req.Name)
		upd.Name = &name
	}
	if req.Description != nil {
		desc := htmlsanitize.PlainText(*req.Description)
		upd.Description = &desc
	}

	club, err := h.Clubs.UpdateProfile(ctx, id, upd)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventClubUpdated,
		ActorID:   me.ID,
		ActorRole: me.Role,
		ClubID:    &club.ID,
	})
	respond.OK(w, club)
}

type setChiefRequest struct {
	UserID *string `json:"userId" validate:"omitempty,objectid" label:"User"`
}

// ServeSetChief handles PUT /clubs/{id}/chief. A null userId removes the
// chief.
func (h *Handler) ServeSetChief(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "Club not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req setChiefRequest
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

	if !h.allow(ctx, w, r, accesspolicy.KindClubChief, id) {
		return
	}

	var chief *primitive.ObjectID
	if req.UserID != nil && *req.UserID != "" {
		cid, _ := primitive.ObjectIDFromHex(*req.UserID)
		if err := h.checkChief(ctx, cid); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		chief = &cid
	}

	club, err := h.Clubs.SetChief(ctx, id, chief)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventClubChiefChanged,
		ActorID:   me.ID,
		ActorRole: me.Role,
		UserID:    chief,
		ClubID:    &club.ID,
	})
	respond.OK(w, club)
}
