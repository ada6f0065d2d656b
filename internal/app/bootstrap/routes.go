// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountfeature "github.com/dalemusser/greenreach/internal/app/features/account"
	adminfeature "github.com/dalemusser/greenreach/internal/app/features/admin"
	applicationsfeature "github.com/dalemusser/greenreach/internal/app/features/applications"
	auditlogfeature "github.com/dalemusser/greenreach/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/greenreach/internal/app/features/errors"
	healthfeature "github.com/dalemusser/greenreach/internal/app/features/health"
	opportunitiesfeature "github.com/dalemusser/greenreach/internal/app/features/opportunities"
	providersfeature "github.com/dalemusser/greenreach/internal/app/features/providers"
	volunteersfeature "github.com/dalemusser/greenreach/internal/app/features/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/metrics"
	"github.com/dalemusser/greenreach/internal/app/workflow/applications"
	"github.com/dalemusser/greenreach/internal/app/workflow/opportunities"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every API route is JSON and authenticates
// with a bearer token; /health and /metrics are public.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	return newRouter(rt, appCfg, deps, logger), nil
}

func newRouter(rt *runtime, appCfg AppConfig, deps DBDeps, logger *zap.Logger) chi.Router {
	db := deps.GreenReachMongoDatabase
	errLog := errorsfeature.NewErrorLogger(logger)

	appSvc := applications.New(db, rt.audit, logger).WithSubmitLimiter(rt.submits)
	oppSvc := opportunities.New(db, rt.audit, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(auditlog.RequestMeta)

	// Global auth middleware: loads the bearer identity into context when present.
	r.Use(rt.tokens.LoadIdentity(logger))

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.GreenReachMongoClient, appCfg.Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		accountHandler := accountfeature.NewHandler(db, rt.tokens, rt.logins, rt.signups, rt.audit, errLog, logger)
		api.Mount("/auth", accountfeature.Routes(accountHandler))

		appHandler := applicationsfeature.NewHandler(appSvc, errLog, logger)
		api.Mount("/applications", applicationsfeature.Routes(appHandler))

		oppHandler := opportunitiesfeature.NewHandler(oppSvc, errLog, logger)
		api.Mount("/opportunities", opportunitiesfeature.Routes(oppHandler))

		volHandler := volunteersfeature.NewHandler(db, errLog, logger)
		api.Mount("/volunteers", volunteersfeature.Routes(volHandler))

		provHandler := providersfeature.NewHandler(db, errLog, logger)
		api.Mount("/providers", providersfeature.Routes(provHandler))

		// Admin-only endpoints.
		api.Route("/admin", func(ar chi.Router) {
			auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
			ar.Mount("/audit", auditlogfeature.Routes(auditHandler))

			adminHandler := adminfeature.NewHandler(oppSvc, rt.reconciler, errLog, logger)
			ar.Mount("/", adminfeature.Routes(adminHandler))
		})
	})

	return r
}
