// internal/app/features/opportunities/routes.go
package opportunities

import (
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/opportunities subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Get("/browse", h.Browse)
	r.Get("/{id}", h.Get)
	r.With(auth.RequireRole(identity.RoleProvider)).Post("/", h.Create)
	r.With(auth.RequireRole(identity.RoleProvider)).Put("/{id}", h.Update)
	r.With(auth.RequireRole(identity.RoleProvider, identity.RoleAdmin)).Delete("/{id}", h.Delete)
	return r
}
