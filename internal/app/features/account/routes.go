// internal/app/features/account/routes.go
package account

import (
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/auth subrouter. Signup and login are public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.With(auth.RequireSignedIn).Get("/me", h.Me)
	return r
}
