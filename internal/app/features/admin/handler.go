// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	"github.com/dalemusser/greenreach/internal/app/features/shared"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/app/system/workers"
	"github.com/dalemusser/greenreach/internal/app/workflow/opportunities"
	"go.uber.org/zap"
)

// Reconciler runs one mirror consistency pass on demand.
type Reconciler interface {
	RunOnce(ctx context.Context) (workers.Report, error)
}

type Handler struct {
	Opps       *opportunities.Service
	Reconciler Reconciler
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

func NewHandler(opps *opportunities.Service, rec Reconciler, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Opps: opps, Reconciler: rec, Log: logger, ErrLog: errLog}
}

type reconcileResponse struct {
	Volunteers    int   `json:"volunteers_scanned"`
	Opportunities int   `json:"opportunities_scanned"`
	Missing       int   `json:"missing_mirrors"`
	Orphans       int   `json:"orphan_mirrors"`
	Mismatches    int   `json:"status_mismatches"`
	Dangling      int   `json:"dangling_entries"`
	Repaired      int   `json:"repaired"`
	DurationMS    int64 `json:"duration_ms"`
}

// DeleteProvider handles DELETE /api/admin/providers/{id}.
func (h *Handler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete provider")
	defer cancel()

	res, err := h.Opps.DeleteProvider(ctx, caller, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Reconcile handles POST /api/admin/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if h.Reconciler == nil {
		h.ErrLog.Write(w, r, apierr.InvalidState("reconciliation is not enabled"))
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Reconcile(), h.Log, "manual reconcile")
	defer cancel()

	rep, err := h.Reconciler.RunOnce(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("reconcile mirrors", err))
		return
	}
	h.Log.Info("manual reconcile finished",
		zap.Int("anomalies", rep.Anomalies()),
		zap.Int("repaired", rep.Repaired))
	respond.JSON(w, http.StatusOK, reconcileResponse{
		Volunteers:    rep.Volunteers,
		Opportunities: rep.Opportunities,
		Missing:       rep.Missing,
		Orphans:       rep.Orphans,
		Mismatches:    rep.Mismatches,
		Dangling:      rep.Dangling,
		Repaired:      rep.Repaired,
		DurationMS:    rep.Duration.Milliseconds(),
	})
}
