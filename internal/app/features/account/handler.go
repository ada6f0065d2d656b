// internal/app/features/account/handler.go
package account

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	"github.com/dalemusser/greenreach/internal/app/store/audit"
	userstore "github.com/dalemusser/greenreach/internal/app/store/users"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/htmlsanitize"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/inputval"
	"github.com/dalemusser/greenreach/internal/app/system/metrics"
	"github.com/dalemusser/greenreach/internal/app/system/normalize"
	"github.com/dalemusser/greenreach/internal/app/system/ratelimit"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/app/system/txn"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgBadCredentials = "Invalid email or password."

type Handler struct {
	DB       *mongo.Database
	Users    *userstore.Store
	Provs    *providerstore.Store
	Tokens   *auth.TokenManager
	Attempts *ratelimit.AttemptTracker // failed logins per email
	Signups  *ratelimit.Limiter        // signups per client IP
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, tm *auth.TokenManager, attempts *ratelimit.AttemptTracker,
	signups *ratelimit.Limiter, al *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Users:    userstore.New(db),
		Provs:    providerstore.New(db),
		Tokens:   tm,
		Attempts: attempts,
		Signups:  signups,
		Audit:    al,
		Log:      logger,
		ErrLog:   errLog,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request / response bodies                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type signupRequest struct {
	FullName         string `json:"full_name" label:"Full name" validate:"nonblank,max=200"`
	Email            string `json:"email" label:"Email" validate:"required,mailbox,max=254"`
	Password         string `json:"password" label:"Password" validate:"required,min=8,max=72"`
	Role             string `json:"role" label:"Role" validate:"required,oneof=volunteer provider"`
	OrganizationName string `json:"organization_name" label:"Organization name" validate:"required_if=Role provider,max=200"`
}

type loginRequest struct {
	Email    string `json:"email" label:"Email" validate:"required,max=254"`
	Password string `json:"password" label:"Password" validate:"required,max=72"`
}

type userView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}

func newUserView(u models.User) userView {
	return userView{ID: u.ID.Hex(), FullName: u.FullName, Email: u.Email, Role: u.Role}
}

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

// issue mints a bearer token for u and writes it with status.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, status int, u models.User) {
	id, err := identity.New(u.ID.Hex(), u.Role, u.FullName)
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("build identity", err))
		return
	}
	tok, exp, err := h.Tokens.Issue(id)
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("issue token", err))
		return
	}
	respond.JSON(w, status, tokenResponse{Token: tok, ExpiresAt: exp, User: newUserView(u)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Handlers                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Signup handles POST /api/auth/signup. A provider account gets its
// organization profile in the same write.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if h.Signups != nil && !h.Signups.Allow(ip) {
		metrics.RecordThrottled("signup")
		h.Audit.Throttled(r.Context(), audit.EventSignupThrottled, ip)
		h.ErrLog.Write(w, r, apierr.RateLimited("Too many sign-up attempts. Please try again later."))
		return
	}

	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "signup")
	defer cancel()

	var created models.User
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		u, err := h.Users.Create(ctx, models.User{
			FullName: htmlsanitize.Strip(req.FullName),
			Email:    req.Email,
			Role:     req.Role,
		}, req.Password)
		if err != nil {
			return err
		}
		id, err := identity.New(u.ID.Hex(), u.Role, u.FullName)
		if err != nil {
			return err
		}
		if id.CanPostOpportunities() {
			if _, err := h.Provs.Create(ctx, models.Provider{
				UserID:           u.ID,
				OrganizationName: htmlsanitize.Strip(req.OrganizationName),
			}); err != nil {
				return fmt.Errorf("create provider profile: %w", err)
			}
		}
		created = u
		return nil
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		h.ErrLog.Write(w, r, apierr.Conflict("An account with this email already exists."))
		return
	case err != nil:
		h.ErrLog.Write(w, r, apierr.Internal("signup", err))
		return
	}

	h.Audit.Signup(ctx, created.ID, created.Role)
	h.Log.Info("account created",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", created.Role))
	h.issue(w, r, http.StatusCreated, created)
}

// Login handles POST /api/auth/login. Repeated failures lock the email out
// for a while; unknown email and wrong password look the same to the caller.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	key := normalize.Email(req.Email)

	if h.Attempts != nil {
		if ok, wait := h.Attempts.Check(key); !ok {
			metrics.RecordThrottled("login")
			h.Audit.Throttled(r.Context(), audit.EventLoginThrottled, key)
			mins := int(math.Ceil(wait.Minutes()))
			h.ErrLog.Write(w, r, apierr.RateLimited("Too many failed attempts. Try again in %d minute(s).", mins))
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, userstore.ErrInvalidCredentials), errors.Is(err, userstore.ErrDisabled):
		reason := "invalid credentials"
		if errors.Is(err, userstore.ErrDisabled) {
			reason = "account disabled"
		}
		if h.Attempts != nil && h.Attempts.Fail(key) {
			h.Log.Warn("login locked out", zap.String("email", key))
		}
		h.Audit.LoginFailed(ctx, key, reason)
		h.ErrLog.Write(w, r, apierr.Unauthenticated(msgBadCredentials))
		return
	case err != nil:
		h.ErrLog.Write(w, r, apierr.Internal("authenticate", err))
		return
	}

	if h.Attempts != nil {
		h.Attempts.Succeed(key)
	}
	h.Audit.LoginSuccess(ctx, u.ID, u.Role)
	h.issue(w, r, http.StatusOK, u)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentIdentity(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load current user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, caller.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.Write(w, r, apierr.NotFound("user not found"))
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("load user", err))
		return
	}
	respond.JSON(w, http.StatusOK, newUserView(u))
}
