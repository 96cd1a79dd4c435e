// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the notifications subrouter, mounted under /notifications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Patch("/", h.ServeMarkRead)
	r.Post("/subscriptions", h.ServeSubscribe)
	r.Delete("/subscriptions", h.ServeUnsubscribe)
	r.Get("/stream", h.ServeStream)
	return r
}
