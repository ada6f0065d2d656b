// internal/app/features/providers/routes.go
package providers

import (
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/providers subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(identity.RoleProvider))
	r.Get("/me", h.Me)
	r.Put("/me", h.Update)
	return r
}
