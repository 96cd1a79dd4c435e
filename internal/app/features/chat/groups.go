// internal/app/features/chat/groups.go
package chat

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	chatsvc "github.com/dalemusser/clubhub/internal/app/services/chat"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
)

// ServeListGroups handles GET /chat/groups.
func (h *Handler) ServeListGroups(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groups, err := h.Chat.GroupSummaries(ctx, me.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, groups)
}

type createGroupRequest struct {
	Name        string   `json:"name" validate:"required,max=100" label:"Group name"`
	Description string   `json:"description" validate:"max=500" label:"Description"`
	Members     []string `json:"members" validate:"max=500" label:"Members"`
}

// ServeCreateGroup handles POST /chat/groups. The role check comes before
// the body is read.
func (h *Handler) ServeCreateGroup(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)
	if !accesspolicy.CanCreateChatGroup(me.Role) {
		respond.Error(w, r, h.Log, apperr.Forbidden("Only admins and presidents can create groups."))
		return
	}

	var req createGroupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}
	members, err := inputval.ObjectIDs("Members", req.Members)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Chat.CreateGroup(ctx, me, chatsvc.NewGroup{
		Name:        req.Name,
		Description: req.Description,
		Members:     members,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventGroupCreated,
		ActorID:   me.ID,
		ActorRole: me.Role,
		Details: map[string]string{
			"group_id": g.ID.Hex(),
			"name":     g.Name,
			"members":  strconv.Itoa(len(g.Members)),
		},
	})
	respond.Created(w, g)
}

type updateGroupRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=100" label:"Group name"`
	Description *string   `json:"description" validate:"omitempty,max=500" label:"Description"`
	Members     *[]string `json:"members" validate:"omitempty,max=500" label:"Members"`
}

// ServeUpdateGroup handles PATCH /chat/groups/{id}. Only group admins and
// global admins may update a group.
func (h *Handler) ServeUpdateGroup(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "Group not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req updateGroupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	patch := chatsvc.GroupPatch{Name: req.Name, Description: req.Description}
	if req.Members != nil {
		members, err := inputval.ObjectIDs("Members", *req.Members)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		patch.Members = &members
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Chat.UpdateGroup(ctx, me, id, patch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventGroupUpdated,
		ActorID:   me.ID,
		ActorRole: me.Role,
		Details:   map[string]string{"group_id": g.ID.Hex(), "name": g.Name},
	})
	respond.OK(w, g)
}

// ServeDeleteGroup handles DELETE /chat/groups/{id}.
func (h *Handler) ServeDeleteGroup(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "Group not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Chat.DeleteGroup(ctx, me, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventGroupDeleted,
		ActorID:   me.ID,
		ActorRole: me.Role,
		Details:   map[string]string{"group_id": id.Hex()},
	})
	respond.OK(w, map[string]bool{"deleted": true})
}

type setAdminRequest struct {
	Admin *bool `json:"admin" validate:"required" label:"admin"`
}

// ServeSetGroupAdmin handles PUT /chat/groups/{id}/admins/{userId}.
func (h *Handler) ServeSetGroupAdmin(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "Group not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	target, err := inputval.PathID(r, "userId", "User not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req setAdminRequest
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

	g, err := h.Chat.SetGroupAdmin(ctx, me, id, target, *req.Admin)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	affected := target
	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventGroupAdminChanged,
		ActorID:   me.ID,
		ActorRole: me.Role,
		UserID:    &affected,
		Details:   map[string]string{"group_id": g.ID.Hex(), "admin": strconv.FormatBool(*req.Admin)},
	})
	respond.OK(w, g)
}
