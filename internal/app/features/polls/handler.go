// internal/app/features/polls/handler.go
package polls

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	pollstore "github.com/dalemusser/clubhub/internal/app/store/polls"
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
	"go.uber.org/zap"
)

const listLimit = 100

// Handler serves the /polls API.
type Handler struct {
	Polls    *pollstore.Store
	Policy   *accesspolicy.Policy
	Notify   *notifysvc.Service
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, policy *accesspolicy.Policy, notify *notifysvc.Service, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Polls:    pollstore.New(db),
		Policy:   policy,
		Notify:   notify,
		AuditLog: auditLog,
		Log:      logger,
	}
}

// decide runs the access policy for polls. Anonymous callers are evaluated
// with the zero Identity, which only ever matches the default rule.
func (h *Handler) decide(ctx context.Context, r *http.Request, action accesspolicy.Action, ref *accesspolicy.Ref) (accesspolicy.Decision, error) {
	me, _ := auth.CurrentIdentity(r)
	d, err := h.Policy.Decide(ctx, me, accesspolicy.KindPolls, action, ref)
	if err != nil {
		return d, apperr.Server("", err)
	}
	if !d.Allowed {
		h.Log.Debug("poll access denied",
			zap.String("action", string(action)),
			zap.String("reason", d.Reason))
	}
	return d, nil
}

// inScope reports whether a poll in club is inside a club-limited scope.
// Polls without a club are outside every club scope.
func inScope(s accesspolicy.Scope, club *primitive.ObjectID) bool {
	if s.All || s.ClubID == nil {
		return true
	}
	return club != nil && *club == *s.ClubID
}

func refFor(p models.Poll) *accesspolicy.Ref {
	author := p.CreatedBy
	return &accesspolicy.Ref{ClubID: p.ClubID, AuthorID: &author, Public: p.IsPublic}
}

// ServeList handles GET /polls?status=open|closed.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.decide(ctx, r, accesspolicy.ActionRead, nil)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !d.Allowed {
		respond.Error(w, r, h.Log, apperr.Forbidden("You do not have permission to view polls."))
		return
	}

	f := pollstore.ListFilter{Limit: listLimit}
	switch status := normalize.Status(r.URL.Query().Get("status")); status {
	case "":
	case models.PollOpen, models.PollClosed:
		f.Status = status
	default:
		respond.Error(w, r, h.Log, apperr.Validation("Status must be open or closed."))
		return
	}
	switch {
	case d.Scope.All:
	case d.Scope.ClubID != nil:
		f.ClubID = d.Scope.ClubID
	default:
		f.PublicOnly = true
	}

	list, err := h.Polls.List(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load polls.", err))
		return
	}
	respond.OK(w, list)
}

// ServeGet handles GET /polls/{id}. Private polls the caller may not read
// are reported as missing.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.PathID(r, "id", "Poll not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.readable(ctx, r, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, p)
}

func (h *Handler) readable(ctx context.Context, r *http.Request, id primitive.ObjectID) (models.Poll, error) {
	p, err := h.Polls.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Poll{}, apperr.NotFound("Poll not found.")
	}
	if err != nil {
		return models.Poll{}, apperr.Server("Failed to load poll.", err)
	}
	if p.IsPublic {
		return p, nil
	}
	d, err := h.decide(ctx, r, accesspolicy.ActionRead, refFor(p))
	if err != nil {
		return models.Poll{}, err
	}
	if !d.Allowed || !inScope(d.Scope, p.ClubID) {
		return models.Poll{}, apperr.NotFound("Poll not found.")
	}
	return p, nil
}
