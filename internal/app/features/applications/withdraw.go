// internal/app/features/applications/withdraw.go
package applications

import (
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/features/shared"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
)

// Withdraw handles DELETE /api/applications/{id}.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "withdraw application")
	defer cancel()

	if err := h.Svc.Withdraw(ctx, caller, id); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Application withdrawn.")
}
