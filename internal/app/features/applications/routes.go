// internal/app/features/applications/routes.go
package applications

import (
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/applications subrouter. Every route needs a signed-in
// caller; the workflow applies the finer ownership rules.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.With(auth.RequireRole(identity.RoleAdmin)).Get("/", h.ListAll)
	r.With(auth.RequireRole(identity.RoleVolunteer)).Get("/user", h.ListMine)
	r.With(auth.RequireRole(identity.RoleProvider, identity.RoleAdmin)).Get("/opportunity/{opportunityId}", h.ListForOpportunity)
	r.Get("/{id}", h.Get)

	r.With(auth.RequireRole(identity.RoleVolunteer)).Post("/", h.Submit)
	r.With(auth.RequireRole(identity.RoleVolunteer)).Post("/register", h.Register)
	r.With(auth.RequireRole(identity.RoleProvider)).Patch("/{id}/status", h.UpdateStatus)
	r.With(auth.RequireRole(identity.RoleVolunteer, identity.RoleProvider)).Patch("/{id}/complete", h.UpdateCompletion)
	r.With(auth.RequireRole(identity.RoleVolunteer)).Delete("/{id}", h.Withdraw)
	return r
}
