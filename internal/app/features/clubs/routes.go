// internal/app/features/clubs/routes.go
package clubs

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the clubs subrouter, mounted under /clubs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{slug}", h.ServeGet)

	r.With(auth.RequireRole(models.RoleAdmin)).Post("/", h.ServeCreate)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Patch("/{id}", h.ServeUpdate)
		pr.Put("/{id}/chief", h.ServeSetChief)
	})
	return r
}
