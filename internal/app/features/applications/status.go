// internal/app/features/applications/status.go
package applications

import (
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/features/shared"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/domain/models"
)

type statusRequest struct {
	Status       string  `json:"status" label:"status" validate:"required,appstatus"`
	FeedbackNote *string `json:"feedbackNote,omitempty"`
}

type completeRequest struct {
	IsCompleted *bool `json:"isCompleted" label:"isCompleted" validate:"required"`
}

// UpdateStatus handles PATCH /api/applications/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update application status")
	defer cancel()

	view, err := h.Svc.UpdateStatus(ctx, caller, id, models.ApplicationStatus(req.Status), req.FeedbackNote)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// UpdateCompletion handles PATCH /api/applications/{id}/complete.
func (h *Handler) UpdateCompletion(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req completeRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update application completion")
	defer cancel()

	view, err := h.Svc.UpdateCompletion(ctx, caller, id, *req.IsCompleted)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}
