// internal/app/features/applications/handler.go
package applications

import (
	"net/http"

	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/inputval"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/workflow/applications"
	"go.uber.org/zap"
)

type Handler struct {
	Svc    *applications.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(svc *applications.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger, ErrLog: errLog}
}

// decode reads and validates a request body, writing the 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := respond.DecodeJSON(w, r, dst); err != nil {
		h.ErrLog.BadRequest(w, r, "Invalid request body: "+err.Error())
		return false
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		h.ErrLog.Write(w, r, apierr.Validation("%s", res.All()))
		return false
	}
	return true
}
