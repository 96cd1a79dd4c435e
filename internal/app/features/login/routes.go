// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the sign-in subrouter, mounted under /auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/password-reset", h.HandleResetRequest)
	r.Post("/password-reset/confirm", h.HandleResetConfirm)
	return r
}
