// internal/app/features/volunteers/handler.go
package volunteers

import (
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/htmlsanitize"
	"github.com/dalemusser/greenreach/internal/app/system/inputval"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Vols   *volunteerstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Vols: volunteerstore.New(db), Log: logger, ErrLog: errLog}
}

// Each onboarding step has its own body.
type step1Request struct {
	FullName string `json:"full_name" label:"Full name" validate:"nonblank,max=200"`
	PhotoURL string `json:"photo_url" label:"Photo URL" validate:"omitempty,httpurl,max=500"`
	Phone    string `json:"phone" label:"Phone" validate:"max=50"`
	Location string `json:"location" label:"Location" validate:"max=500"`
}

type step2Request struct {
	Interests []string `json:"interests" label:"Interests" validate:"max=20,dive,max=100"`
	Skills    []string `json:"skills" label:"Skills" validate:"max=20,dive,max=100"`
}

type step3Request struct {
	Availability string `json:"availability" label:"Availability" validate:"nonblank,max=500"`
	Bio          string `json:"bio" label:"Bio" validate:"max=2000"`
}

// Me handles GET /api/volunteers/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get volunteer profile")
	defer cancel()

	v, err := h.Vols.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, volunteerstore.ErrNotFound) {
		h.ErrLog.Write(w, r, apierr.NotFound("volunteer profile not found"))
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("load volunteer profile", err))
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

// SetStep handles PUT /api/volunteers/me/steps/{step}. Step 1 creates the
// profile when the caller does not have one yet.
func (h *Handler) SetStep(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil || step < 1 || step > 3 {
		h.ErrLog.Write(w, r, apierr.Validation("step must be 1, 2, or 3"))
		return
	}

	var f volunteerstore.StepFields
	var dst any
	switch step {
	case 1:
		dst = &step1Request{}
	case 2:
		dst = &step2Request{}
	default:
		dst = &step3Request{}
	}
	if err := respond.DecodeJSON(w, r, dst); err != nil {
		h.ErrLog.BadRequest(w, r, "Invalid request body: "+err.Error())
		return
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		h.ErrLog.Write(w, r, apierr.Validation("%s", res.All()))
		return
	}
	switch req := dst.(type) {
	case *step1Request:
		f.FullName = htmlsanitize.Strip(req.FullName)
		f.PhotoURL = req.PhotoURL
		f.Phone = htmlsanitize.Strip(req.Phone)
		f.Location = htmlsanitize.Strip(req.Location)
	case *step2Request:
		f.Interests = req.Interests
		f.Skills = req.Skills
	case *step3Request:
		f.Availability = htmlsanitize.Strip(req.Availability)
		f.Bio = htmlsanitize.Strip(req.Bio)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set volunteer step")
	defer cancel()

	err = h.Vols.SetStep(ctx, caller.UserID, step, f)
	if errors.Is(err, volunteerstore.ErrNotFound) && step == 1 {
		_, err = h.Vols.Create(ctx, models.Volunteer{UserID: caller.UserID, FullName: f.FullName})
		if err == nil || errors.Is(err, volunteerstore.ErrDuplicateProfile) {
			err = h.Vols.SetStep(ctx, caller.UserID, step, f)
		}
	}
	switch {
	case errors.Is(err, volunteerstore.ErrNotFound):
		h.ErrLog.Write(w, r, apierr.Conflict("complete step 1 first to create your profile"))
		return
	case err != nil:
		h.ErrLog.Write(w, r, apierr.Internal("save volunteer step", err))
		return
	}

	v, err := h.Vols.GetByUserID(ctx, caller.UserID)
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("reload volunteer profile", err))
		return
	}
	h.Log.Info("volunteer step saved", zap.String("volunteer_id", v.ID.Hex()), zap.Int("step", step))
	respond.JSON(w, http.StatusOK, v)
}
