// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"

	notificationstore "github.com/dalemusser/clubhub/internal/app/store/notifications"
	pushsubstore "github.com/dalemusser/clubhub/internal/app/store/pushsubs"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/pushbus"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /notifications API.
type Handler struct {
	Store  *notificationstore.Store
	Subs   *pushsubstore.Store
	Stream pushbus.Subscriber // nil disables /stream
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, stream pushbus.Subscriber, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  notificationstore.New(db),
		Subs:   pushsubstore.New(db),
		Stream: stream,
		Log:    logger,
	}
}

// ServeList handles GET /notifications: the caller's newest notifications.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Store.List(ctx, me.ID, notificationstore.DefaultListLimit)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load notifications.", err))
		return
	}
	respond.OK(w, list)
}

type markReadRequest struct {
	ID  string `json:"id"`
	All bool   `json:"all"`
}

// ServeMarkRead handles PATCH /notifications with {"id": "..."} or
// {"all": true}.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	var req markReadRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if req.All {
		n, err := h.Store.MarkAllRead(ctx, me.ID)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Server("Failed to update notifications.", err))
			return
		}
		respond.OK(w, map[string]int64{"updated": n})
		return
	}

	if req.ID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Provide id or all."))
		return
	}
	id, err := inputval.ObjectID("id", req.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	found, err := h.Store.MarkRead(ctx, id, me.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to update notification.", err))
		return
	}
	if !found {
		respond.Error(w, r, h.Log, apperr.NotFound("Notification not found."))
		return
	}
	respond.OK(w, map[string]int64{"updated": 1})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,httpurl" label:"Endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required" label:"p256dh key"`
		Auth   string `json:"auth" validate:"required" label:"auth key"`
	} `json:"keys"`
}

// ServeSubscribe handles POST /notifications/subscriptions.
func (h *Handler) ServeSubscribe(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	var req subscribeRequest
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

	err := h.Subs.Upsert(ctx, models.PushSubscription{
		UserID:   me.ID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to save subscription.", err))
		return
	}
	respond.Created(w, map[string]bool{"subscribed": true})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required" label:"Endpoint"`
}

// ServeUnsubscribe handles DELETE /notifications/subscriptions.
func (h *Handler) ServeUnsubscribe(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentIdentity(r)

	var req unsubscribeRequest
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

	found, err := h.Subs.Delete(ctx, me.ID, req.Endpoint)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to remove subscription.", err))
		return
	}
	if !found {
		respond.Error(w, r, h.Log, apperr.NotFound("Subscription not found."))
		return
	}
	respond.OK(w, map[string]bool{"subscribed": false})
}
