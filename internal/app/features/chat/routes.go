// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the chat subrouter, mounted under /chat. Every route needs
// a signed-in identity.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/messages", h.ServeListMessages)
	r.Post("/messages", h.ServeSendMessage)
	r.Patch("/messages/{id}", h.ServePatchMessage)

	r.Get("/groups", h.ServeListGroups)
	r.Post("/groups", h.ServeCreateGroup)
	r.Patch("/groups/{id}", h.ServeUpdateGroup)
	r.Delete("/groups/{id}", h.ServeDeleteGroup)
	r.Put("/groups/{id}/admins/{userId}", h.ServeSetGroupAdmin)

	r.Get("/unread-count", h.ServeUnreadCount)
	return r
}
