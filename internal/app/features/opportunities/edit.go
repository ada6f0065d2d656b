// internal/app/features/opportunities/edit.go
package opportunities

import (
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/features/shared"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/app/workflow/opportunities"
)

// Update handles PUT /api/opportunities/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var in opportunities.Input
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "Invalid request body: "+err.Error())
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update opportunity")
	defer cancel()

	view, err := h.Svc.Update(ctx, caller, id, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}
