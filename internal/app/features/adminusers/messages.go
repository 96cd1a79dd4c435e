// internal/app/features/adminusers/messages.go
package adminusers

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
)

const moderationLimit = 200

// ServeMessages handles GET /admin/messages?userId=: a user's direct
// messages for moderation.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.allow(ctx, w, r, accesspolicy.KindMessagesAdmin, accesspolicy.ActionRead) {
		return
	}

	raw := normalize.QueryParam(r.URL.Query().Get("userId"))
	if raw == "" {
		respond.Error(w, r, h.Log, apperr.Validation("userId is required."))
		return
	}
	uid, err := inputval.ObjectID("userId", raw)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	msgs, err := h.Chat.MessagesForUser(ctx, uid, moderationLimit)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, msgs)
}
