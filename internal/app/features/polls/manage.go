// internal/app/features/polls/manage.go
package polls

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
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

type createPollRequest struct {
	Question string   `json:"question" validate:"required,max=300" label:"Question"`
	Options  []string `json:"options" validate:"min=2,max=10,dive,required,max=200" label:"Options"`
	ClubID   string   `json:"clubId" validate:"omitempty,objectid" label:"Club"`
	IsPublic *bool    `json:"isPublic"`
}

// ServeCreate handles POST /polls. Presidents create polls for their own
// club; admins may create club polls or association-wide ones.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	var req createPollRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	poll := models.Poll{
		Question:  htmlsanitize.PlainText(req.Question),
		IsPublic:  req.IsPublic == nil || *req.IsPublic,
		CreatedBy: me.ID,
	}
	for _, o := range req.Options {
		text := htmlsanitize.PlainText(o)
		if text == "" {
			respond.Error(w, r, h.Log, apperr.Validation("Options must not be empty."))
			return
		}
		poll.Options = append(poll.Options, models.PollOption{Text: text})
	}
	if poll.Question == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Question is required."))
		return
	}

	var ref *accesspolicy.Ref
	if req.ClubID != "" {
		club, _ := primitive.ObjectIDFromHex(req.ClubID)
		ref = &accesspolicy.Ref{ClubID: &club}
		poll.ClubID = &club
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.decide(ctx, r, accesspolicy.ActionCreate, ref)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !d.Allowed {
		respond.Error(w, r, h.Log, apperr.Forbidden("Only admins and presidents can create polls."))
		return
	}
	if poll.ClubID == nil && d.Scope.ClubID != nil {
		poll.ClubID = d.Scope.ClubID
	}

	poll, err = h.Polls.Create(ctx, poll)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to create poll.", err))
		return
	}

	h.announce(ctx, me, poll)
	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventPollCreated,
		ActorID:   me.ID,
		ActorRole: me.Role,
		ClubID:    poll.ClubID,
		Details: map[string]string{
			"poll_id": poll.ID.Hex(),
			"options": strconv.Itoa(len(poll.Options)),
		},
	})
	respond.Created(w, poll)
}

// announce tells admins about a president's poll, and a club's president
// about an admin's poll for that club.
func (h *Handler) announce(ctx context.Context, me auth.Identity, p models.Poll) {
	if h.Notify == nil {
		return
	}
	link := "/polls/" + p.ID.Hex()
	sender := me.ID
	switch {
	case me.IsPresident():
		h.Notify.NotifyAdmins(ctx, notifysvc.Notice{
			Type:    models.NotifSubmission,
			Title:   "New poll from " + me.Name,
			Message: p.Question,
			Link:    link,
			Sender:  &sender,
		})
	case me.IsAdmin() && p.ClubID != nil:
		h.Notify.NotifyClubPresident(ctx, *p.ClubID, me.ID, notifysvc.Notice{
			Type:    models.NotifPoll,
			Title:   "New poll for your club",
			Message: p.Question,
			Link:    link,
			Sender:  &sender,
		})
	}
}

// ServeClose handles PATCH /polls/{id}/close.
func (h *Handler) ServeClose(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	id, err := inputval.PathID(r, "id", "Poll not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Polls.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("Poll not found."))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load poll.", err))
		return
	}

	d, err := h.decide(ctx, r, accesspolicy.ActionUpdate, refFor(p))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !d.Allowed || !inScope(d.Scope, p.ClubID) {
		respond.Error(w, r, h.Log, apperr.Forbidden("You do not have permission to close this poll."))
		return
	}

	p, err = h.Polls.Close(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to close poll.", err))
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.AdminAction{
		EventType: audit.EventPollClosed,
		ActorID:   me.ID,
		ActorRole: me.Role,
		ClubID:    p.ClubID,
		Details:   map[string]string{"poll_id": p.ID.Hex()},
	})
	respond.OK(w, p)
}
