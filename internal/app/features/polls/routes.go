// internal/app/features/polls/routes.go
package polls

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the polls subrouter, mounted under /polls. Listing, reading
// and voting are open to signed-out callers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/vote", h.ServeVote)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.ServeCreate)
		pr.Patch("/{id}/close", h.ServeClose)
	})
	return r
}
