// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/greenreach/internal/app/system/inputval"
	"github.com/dalemusser/greenreach/internal/app/system/ratelimit"
	"github.com/dalemusser/greenreach/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// devJWTSecret is accepted outside production only.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for GreenReach.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: GREENREACH_MONGO_URI, GREENREACH_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "greenreach", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing secret for bearer tokens (32+ chars; must be changed in production)"},
	{Name: "jwt_issuer", Default: "greenreach", Desc: "Issuer claim set on and required of bearer tokens"},
	{Name: "token_ttl", Default: "24h", Desc: "Bearer token lifetime (e.g., 24h, 90m)"},

	// Mirror reconciliation
	{Name: "reconcile_enabled", Default: true, Desc: "Run the scheduled applicant mirror reconciliation job"},
	{Name: "reconcile_schedule", Default: workers.DefaultReconcileSpec, Desc: "Cron schedule for reconciliation (e.g., '@every 15m', '0 3 * * *')"},

	// Throttling
	{Name: "submit_interval", Default: "6s", Desc: "Refill interval of the per-volunteer application submit limit"},
	{Name: "submit_burst", Default: 10, Desc: "Application submits a volunteer may make at once"},
	{Name: "signup_interval", Default: "1m", Desc: "Refill interval of the per-IP signup limit"},
	{Name: "signup_burst", Default: 5, Desc: "Signups allowed from one IP at once"},
	{Name: "login_max_failures", Default: 5, Desc: "Failed logins allowed per email before lockout"},
	{Name: "login_window", Default: "15m", Desc: "Window in which failed logins are counted"},
	{Name: "login_lockout", Default: "15m", Desc: "How long an email stays locked after too many failures"},
	{Name: "sweep_interval", Default: "5m", Desc: "How often idle throttle state is evicted"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs/CIDRs whose forwarding headers are trusted (empty trusts none)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_workflow", Default: "all", Desc: "Workflow event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin and system event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for lists and single-collection writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for writes spanning volunteers and opportunities"},
	{Name: "timeout_reconcile", Default: "5m", Desc: "Deadline for one reconciliation pass"},

	{Name: "version", Default: "dev", Desc: "Version string reported by /health"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, GREENREACH_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GREENREACH", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		TokenTTL:  appValues.Duration("token_ttl", 24*time.Hour),

		ReconcileEnabled:  appValues.Bool("reconcile_enabled"),
		ReconcileSchedule: appValues.String("reconcile_schedule"),

		SubmitInterval:   appValues.Duration("submit_interval", 6*time.Second),
		SubmitBurst:      appValues.Int("submit_burst"),
		SignupInterval:   appValues.Duration("signup_interval", time.Minute),
		SignupBurst:      appValues.Int("signup_burst"),
		LoginMaxFailures: appValues.Int("login_max_failures"),
		LoginWindow:      appValues.Duration("login_window", 15*time.Minute),
		LoginLockout:     appValues.Duration("login_lockout", 15*time.Minute),
		SweepInterval:    appValues.Duration("sweep_interval", 5*time.Minute),
		TrustedProxies:   appValues.String("trusted_proxies"),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogWorkflow: appValues.String("audit_log_workflow"),
		AuditLogAdmin:    appValues.String("audit_log_admin"),

		TimeoutShort:     appValues.Duration("timeout_short", 0),
		TimeoutMedium:    appValues.Duration("timeout_medium", 0),
		TimeoutLong:      appValues.Duration("timeout_long", 0),
		TimeoutReconcile: appValues.Duration("timeout_reconcile", 0),

		Version: appValues.String("version"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI and reconcile schedule are parsed here so that mistakes
// surface before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

func validateApp(env string, appCfg AppConfig) error {
	if res := inputval.Validate(appCfg); res.HasErrors() {
		return errors.New("invalid configuration: " + res.All())
	}
	if env == "prod" && appCfg.JWTSecret == devJWTSecret {
		return errors.New("jwt_secret must be set in production")
	}
	if _, err := ratelimit.ParseProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted_proxies: %w", err)
	}
	if appCfg.ReconcileEnabled {
		if _, err := cron.ParseStandard(appCfg.ReconcileSchedule); err != nil {
			return fmt.Errorf("invalid reconcile_schedule %q: %w", appCfg.ReconcileSchedule, err)
		}
	}
	return nil
}
