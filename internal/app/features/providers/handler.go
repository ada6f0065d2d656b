// internal/app/features/providers/handler.go
package providers

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/htmlsanitize"
	"github.com/dalemusser/greenreach/internal/app/system/inputval"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Provs  *providerstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Provs: providerstore.New(db), Log: logger, ErrLog: errLog}
}

type profileRequest struct {
	OrganizationName string `json:"organization_name" label:"Organization name" validate:"nonblank,max=200"`
	Description      string `json:"description" label:"Description" validate:"max=10000"`
	Website          string `json:"website" label:"Website" validate:"omitempty,httpurl,max=500"`
	LogoURL          string `json:"logo_url" label:"Logo URL" validate:"omitempty,httpurl,max=500"`
}

// Me handles GET /api/providers/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get provider profile")
	defer cancel()

	p, err := h.Provs.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, providerstore.ErrNotFound) {
		h.ErrLog.Write(w, r, apierr.NotFound("provider profile not found"))
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("load provider profile", err))
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Update handles PUT /api/providers/me, creating the profile on first save.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	var req profileRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "Invalid request body: "+err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		h.ErrLog.Write(w, r, apierr.Validation("%s", res.All()))
		return
	}
	upd := providerstore.ProfileUpdate{
		OrganizationName: htmlsanitize.Strip(req.OrganizationName),
		Description:      htmlsanitize.Sanitize(req.Description),
		Website:          req.Website,
		LogoURL:          req.LogoURL,
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update provider profile")
	defer cancel()

	err := h.Provs.UpdateProfile(ctx, caller.UserID, upd)
	if errors.Is(err, providerstore.ErrNotFound) {
		_, err = h.Provs.Create(ctx, models.Provider{
			UserID:           caller.UserID,
			OrganizationName: upd.OrganizationName,
			Description:      upd.Description,
			Website:          upd.Website,
			LogoURL:          upd.LogoURL,
		})
		if errors.Is(err, providerstore.ErrDuplicateProfile) {
			err = h.Provs.UpdateProfile(ctx, caller.UserID, upd)
		}
	}
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("save provider profile", err))
		return
	}

	p, err := h.Provs.GetByUserID(ctx, caller.UserID)
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("reload provider profile", err))
		return
	}
	respond.JSON(w, http.StatusOK, p)
}
