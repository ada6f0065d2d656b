// internal/app/features/opportunities/delete.go
package opportunities

import (
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/features/shared"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
)

// Delete handles DELETE /api/opportunities/{id}[?confirm=true].
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete opportunity")
	defer cancel()

	res, err := h.Svc.Delete(ctx, caller, id, shared.BoolQuery(r, "confirm"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
