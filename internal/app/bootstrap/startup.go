// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/greenreach/internal/app/store/audit"
	userstore "github.com/dalemusser/greenreach/internal/app/store/users"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/ratelimit"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"github.com/dalemusser/greenreach/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// runtime is the process-wide state built by Startup and shared with
// BuildHandler and Shutdown.
type runtime struct {
	tokens     *auth.TokenManager
	audit      *auditlog.Logger
	submits    *ratelimit.Limiter
	signups    *ratelimit.Limiter
	logins     *ratelimit.AttemptTracker
	reconciler *workers.Reconciler
	sweeper    *workers.Sweeper
}

var (
	rtMu sync.Mutex
	rt   *runtime
)

func currentRuntime() (*runtime, error) {
	rtMu.Lock()
	defer rtMu.Unlock()
	if rt == nil {
		return nil, errors.New("startup has not run")
	}
	return rt, nil
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// configured timeouts, builds the token manager and throttles, and starts the
// background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:     appCfg.TimeoutShort,
		Medium:    appCfg.TimeoutMedium,
		Long:      appCfg.TimeoutLong,
		Reconcile: appCfg.TimeoutReconcile,
	})

	proxies, err := ratelimit.ParseProxies(appCfg.TrustedProxies)
	if err != nil {
		return err
	}
	ratelimit.SetTrustedProxies(proxies)

	r, err := newRuntime(appCfg, deps, logger)
	if err != nil {
		return err
	}
	if appCfg.ReconcileEnabled {
		if err := r.reconciler.Start(); err != nil {
			return err
		}
	} else {
		logger.Info("mirror reconciler disabled")
	}
	r.sweeper.Start()

	rtMu.Lock()
	rt = r
	rtMu.Unlock()
	return nil
}

func newRuntime(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*runtime, error) {
	db := deps.GreenReachMongoDatabase

	tm, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.TokenTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	// Disabled accounts and role changes take effect on the next request.
	tm.SetChecker(userstore.NewFetcher(db))

	al := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Workflow: appCfg.AuditLogWorkflow,
		Admin:    appCfg.AuditLogAdmin,
	})

	r := &runtime{
		tokens:  tm,
		audit:   al,
		submits: ratelimit.New(appCfg.SubmitInterval, appCfg.SubmitBurst),
		signups: ratelimit.New(appCfg.SignupInterval, appCfg.SignupBurst),
		logins: ratelimit.NewAttemptTracker(ratelimit.AttemptConfig{
			MaxFailures: appCfg.LoginMaxFailures,
			Window:      appCfg.LoginWindow,
			Lockout:     appCfg.LoginLockout,
		}),
		reconciler: workers.NewReconciler(db, al, logger, appCfg.ReconcileSchedule, timeouts.Reconcile()),
	}
	r.sweeper = workers.NewSweeper(logger, appCfg.SweepInterval, map[string]workers.Sweepable{
		"submit": r.submits,
		"signup": r.signups,
		"login":  r.logins,
	})
	return r, nil
}
