// internal/app/features/opportunities/handler.go
package opportunities

import (
	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	"github.com/dalemusser/greenreach/internal/app/workflow/opportunities"
	"go.uber.org/zap"
)

type Handler struct {
	Svc    *opportunities.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(svc *opportunities.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger, ErrLog: errLog}
}
