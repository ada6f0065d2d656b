// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(identity.RoleAdmin))
	r.Delete("/providers/{id}", h.DeleteProvider)
	r.Post("/reconcile", h.Reconcile)
	return r
}
