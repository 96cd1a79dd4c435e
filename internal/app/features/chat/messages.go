// internal/app/features/chat/messages.go
package chat

import (
	"context"
	"net/http"
	"strings"

	chatsvc "github.com/dalemusser/clubhub/internal/app/services/chat"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
)

// ServeListMessages handles GET /chat/messages?recipientId= or ?groupId=.
// Reading a thread marks it read for the caller.
func (h *Handler) ServeListMessages(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)
	q := r.URL.Query()
	recipient := strings.TrimSpace(q.Get("recipientId"))
	group := strings.TrimSpace(q.Get("groupId"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	switch {
	case recipient != "" && group == "":
		peer, err := inputval.ObjectID("recipientId", recipient)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		msgs, err := h.Chat.ListThread(ctx, me.ID, peer)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		respond.OK(w, msgs)

	case group != "" && recipient == "":
		gid, err := inputval.ObjectID("groupId", group)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		msgs, err := h.Chat.ListGroupThread(ctx, me.ID, gid)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		respond.OK(w, msgs)

	default:
		respond.Error(w, r, h.Log, apperr.Validation("Provide exactly one of recipientId or groupId."))
	}
}

type sendRequest struct {
	RecipientID string `json:"recipientId"`
	GroupID     string `json:"groupId"`
	Message     string `json:"message" validate:"required" label:"Message"`
}

// ServeSendMessage handles POST /chat/messages.
func (h *Handler) ServeSendMessage(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	var req sendRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}
	hasRecipient := strings.TrimSpace(req.RecipientID) != ""
	hasGroup := strings.TrimSpace(req.GroupID) != ""
	if hasRecipient == hasGroup {
		respond.Error(w, r, h.Log, apperr.Validation("Provide exactly one of recipientId or groupId."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if hasRecipient {
		to, err := inputval.ObjectID("recipientId", req.RecipientID)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		m, err := h.Chat.SendDirect(ctx, me, to, req.Message)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		respond.Created(w, m)
		return
	}

	gid, err := inputval.ObjectID("groupId", req.GroupID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	m, err := h.Chat.SendGroup(ctx, me, gid, req.Message)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, m)
}

type patchRequest struct {
	Message   *string `json:"message"`
	IsDeleted *bool   `json:"isDeleted"`
}

// ServePatchMessage handles PATCH /chat/messages/{id}: edit with
// {"message": "..."} or soft delete with {"isDeleted": true}.
func (h *Handler) ServePatchMessage(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "Message not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req patchRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.Chat.EditOrDelete(ctx, me.ID, id, chatsvc.Patch{
		Message:   req.Message,
		IsDeleted: req.IsDeleted,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out)
}

// ServeUnreadCount handles GET /chat/unread-count.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	respond.OK(w, h.Chat.UnreadCount(ctx, me.ID))
}
