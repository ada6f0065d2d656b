// internal/app/features/volunteers/routes.go
package volunteers

import (
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/volunteers subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(identity.RoleVolunteer))
	r.Get("/me", h.Me)
	r.Put("/me/steps/{step}", h.SetStep)
	return r
}
