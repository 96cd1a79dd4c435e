// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the audit subrouter, mounted under /admin/audit.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleAdmin, models.RolePresident))

	r.Get("/", h.ServeList)
	return r
}
