// internal/app/features/adminusers/routes.go
package adminusers

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the admin subrouter, mounted under /admin. Per-route
// permissions come from the access policy.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/users", h.ServeList)
	r.Patch("/users/{id}", h.ServeUpdate)
	r.Get("/messages", h.ServeMessages)
	return r
}
