// internal/app/features/applications/submit.go
package applications

import (
	"context"
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/app/workflow/applications"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type submitRequest struct {
	OpportunityID string `json:"opportunityId" label:"opportunityId" validate:"required,objectid"`
}

// Submit handles POST /api/applications.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.Svc.Submit)
}

// Register handles POST /api/applications/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.Svc.Register)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, identity.Identity, primitive.ObjectID) (applications.ApplicationView, error)) {

	caller, _ := auth.CurrentIdentity(r)
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	oppID, _ := primitive.ObjectIDFromHex(req.OpportunityID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit application")
	defer cancel()

	view, err := fn(ctx, caller, oppID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, view)
}
