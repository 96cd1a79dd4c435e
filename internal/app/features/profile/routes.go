// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the profile subrouter, mounted under /profile.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeProfile)
	r.Patch("/password", h.HandleChangePassword)
	return r
}
