// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
)

// Routes returns the admin-only audit log subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(identity.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}
