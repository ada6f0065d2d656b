// internal/app/features/opportunities/new.go
package opportunities

import (
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/app/workflow/opportunities"
)

// Create handles POST /api/opportunities.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	var in opportunities.Input
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "Invalid request body: "+err.Error())
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create opportunity")
	defer cancel()

	view, err := h.Svc.Create(ctx, caller, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, view)
}
