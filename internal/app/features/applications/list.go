// internal/app/features/applications/list.go
package applications

import (
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/features/shared"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
)

// ListAll handles GET /api/applications (admin).
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "list all applications")
	defer cancel()

	list, err := h.Svc.ListAll(ctx, caller)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// ListMine handles GET /api/applications/user (volunteer).
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list my applications")
	defer cancel()

	list, err := h.Svc.ListForCaller(ctx, caller)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// ListForOpportunity handles GET /api/applications/opportunity/{opportunityId}.
func (h *Handler) ListForOpportunity(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	oppID, err := shared.ObjectIDParam(r, "opportunityId")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list applicants")
	defer cancel()

	list, err := h.Svc.ListForOpportunity(ctx, caller, oppID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /api/applications/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get application")
	defer cancel()

	view, err := h.Svc.GetByID(ctx, caller, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}
