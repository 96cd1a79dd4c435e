// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	pageSize   = 50
	dateLayout = "2006-01-02"
)

// ServeList handles GET /admin/audit?category=&eventType=&startDate=&endDate=&page=.
// Admins see every event; presidents see only events tied to their club.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentIdentity(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	q := r.URL.Query()
	category := strings.ToLower(strings.TrimSpace(q.Get("category")))
	if !validCategory(category) {
		respond.Error(w, r, h.Log, apperr.Validation("Unknown category."))
		return
	}
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: strings.TrimSpace(q.Get("eventType")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if s := strings.TrimSpace(q.Get("startDate")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Validation("startDate must be YYYY-MM-DD."))
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("endDate")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Validation("endDate must be YYYY-MM-DD."))
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	if !id.IsAdmin() {
		club, err := h.Clubs.EffectiveClub(ctx, id.ID, id.ClubID)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Server("Failed to resolve club.", err))
			return
		}
		if club == nil {
			respond.OK(w, listResponse{Items: []listItem{}, Page: 1, TotalPages: 1})
			return
		}
		filter.ClubID = club
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to load audit events.", err))
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server("Failed to count audit events.", err))
		return
	}

	names := h.resolveNames(ctx, events)
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			CreatedAt: e.CreatedAt,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.UserID = e.UserID.Hex()
			item.TargetName = names[*e.UserID]
		}
		if e.ClubID != nil {
			item.ClubID = e.ClubID.Hex()
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	respond.OK(w, listResponse{Items: items, Page: page, TotalPages: totalPages, Total: total})
}

// resolveNames batch-loads display names for every actor and target.
// A lookup failure leaves names blank rather than failing the list.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}
	names, err := h.Users.NamesByID(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to resolve audit names", zap.Error(err))
		return map[primitive.ObjectID]string{}
	}
	return names
}
