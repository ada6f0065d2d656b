// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig keeps the
// framework-level settings (ports, TLS, logging level, CORS, body limits);
// everything below is specific to GreenReach.
//
// The validate tags are checked by ValidateConfig before any backend is
// contacted.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string `label:"mongo_uri" validate:"required"`
	MongoDatabase    string `label:"mongo_database" validate:"nonblank"`
	MongoMaxPoolSize uint64 `label:"mongo_max_pool_size" validate:"gte=1"`
	MongoMinPoolSize uint64 `label:"mongo_min_pool_size" validate:"ltefield=MongoMaxPoolSize"`

	// Bearer tokens
	JWTSecret string        `label:"jwt_secret" validate:"required"`
	JWTIssuer string        `label:"jwt_issuer"`
	TokenTTL  time.Duration `label:"token_ttl" validate:"gte=1m"`

	// Mirror reconciliation job
	ReconcileEnabled  bool
	ReconcileSchedule string `label:"reconcile_schedule"`

	// Throttling
	SubmitInterval   time.Duration `label:"submit_interval"`
	SubmitBurst      int           `label:"submit_burst" validate:"gte=1"`
	SignupInterval   time.Duration `label:"signup_interval"`
	SignupBurst      int           `label:"signup_burst" validate:"gte=1"`
	LoginMaxFailures int           `label:"login_max_failures" validate:"gte=1"`
	LoginWindow      time.Duration `label:"login_window"`
	LoginLockout     time.Duration `label:"login_lockout"`
	SweepInterval    time.Duration `label:"sweep_interval"`

	// TrustedProxies lists peers (IPs or CIDRs, comma separated) whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies string

	// Audit logging: all | db | log | off
	AuditLogAuth     string `label:"audit_log_auth" validate:"oneof=all db log off"`
	AuditLogWorkflow string `label:"audit_log_workflow" validate:"oneof=all db log off"`
	AuditLogAdmin    string `label:"audit_log_admin" validate:"oneof=all db log off"`

	// Deadlines (zero keeps the built-in default)
	TimeoutShort     time.Duration
	TimeoutMedium    time.Duration
	TimeoutLong      time.Duration
	TimeoutReconcile time.Duration

	// Version is reported by /health.
	Version string
}
