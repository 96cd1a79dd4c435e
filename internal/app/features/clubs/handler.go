// internal/app/features/clubs/handler.go
package clubs

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /clubs API.
type Handler struct {
	Clubs    *clubstore.Store
	Users    *userstore.Store
	Policy   *accesspolicy.Policy
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, policy *accesspolicy.Policy, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Clubs:    clubstore.New(db),
		Users:    userstore.New(db),
		Policy:   policy,
		AuditLog: auditLog,
		Log:      logger,
	}
}

// storeErr maps club store errors to API errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("Club not found.")
	case errors.Is(err, clubstore.ErrDuplicateSlug):
		return apperr.Validation("A club with this slug already exists.")
	case errors.Is(err, clubstore.ErrChiefTaken):
		return apperr.Validation("This user is already chief of another club.")
	case errors.Is(err, clubstore.ErrEmptyName):
		return apperr.Validation("Club name is required.")
	case errors.Is(err, clubstore.ErrEmptySlug):
		return apperr.Validation("Club slug must contain Latin letters or digits; provide a slug.")
	default:
		return apperr.Server("Failed to save club.", err)
	}
}

// allow runs the access policy against one club and answers 403 on denial.
func (h *Handler) allow(ctx context.Context, w http.ResponseWriter, r *http.Request, kind accesspolicy.Kind, club primitive.ObjectID) bool {
	me, _ := auth.CurrentIdentity(r)
	d, err := h.Policy.Decide(ctx, me, kind, accesspolicy.ActionUpdate, &accesspolicy.Ref{ClubID: &club})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("", err))
		return false
	}
	if !d.Allowed {
		h.Log.Debug("club access denied", zap.String("kind", string(kind)), zap.String("reason", d.Reason))
		respond.Error(w, r, h.Log, apperr.Forbidden("You do not have permission to change this club."))
		return false
	}
	return true
}

// ServeList handles GET /clubs.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Clubs.List(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load clubs.", err))
		return
	}
	respond.OK(w, list)
}

// ServeGet handles GET /clubs/{slug}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "slug")))
	if slug == "" {
		respond.Error(w, r, h.Log, apperr.NotFound("Club not found."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Clubs.GetBySlug(ctx, slug)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	respond.OK(w, c)
}
