// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/greenreach/internal/app/store/audit"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/ratelimit"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Logging modes.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration, one mode per category.
type Config struct {
	Auth     string
	Workflow string
	Admin    string
}

// ValidMode reports whether m is one of the logging modes.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request metadata                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type metaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// RequestMeta stores the client IP and user agent in the request context so
// events logged deeper in the call chain carry them.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := requestMeta{ip: ratelimit.ClientIP(r), userAgent: r.UserAgent()}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), metaKey{}, m)))
	})
}

func withMeta(ctx context.Context, e *audit.Event) {
	if m, ok := ctx.Value(metaKey{}).(requestMeta); ok {
		if e.IP == "" {
			e.IP = m.ip
		}
		if e.UserAgent == "" {
			e.UserAgent = m.userAgent
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Core                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	oid := func(key string, id *primitive.ObjectID) {
		if id != nil {
			fields = append(fields, zap.String(key, id.Hex()))
		}
	}
	oid("actor_id", event.ActorID)
	oid("application_id", event.ApplicationID)
	oid("opportunity_id", event.OpportunityID)
	oid("volunteer_id", event.VolunteerID)
	oid("provider_id", event.ProviderID)
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryWorkflow:
		setting = l.config.Workflow
	case audit.CategoryAdmin, audit.CategorySystem:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	withMeta(ctx, &event)

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func actor(id identity.Identity) (*primitive.ObjectID, string) {
	if !id.Valid() {
		return nil, ""
	}
	uid := id.UserID
	return &uid, id.Role.String()
}

func ptr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

/*─────────────────────────────────────────────────────────────────────────────*
| Auth events                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Signup logs a new account.
func (l *Logger) Signup(ctx context.Context, userID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignup,
		ActorID:   ptr(userID),
		ActorRole: role,
		Success:   true,
	})
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, userID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   ptr(userID),
		ActorRole: role,
		Success:   true,
	})
}

// LoginFailed logs a failed login. The attempted email is recorded, never the password.
func (l *Logger) LoginFailed(ctx context.Context, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// Throttled logs a rejected signup or login attempt.
func (l *Logger) Throttled(ctx context.Context, eventType, key string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		Success:       false,
		FailureReason: "too many attempts",
		Details:       map[string]string{"key": key},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Workflow events                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ApplicationSubmitted logs a new application.
func (l *Logger) ApplicationSubmitted(ctx context.Context, who identity.Identity, applicationID, opportunityID, volunteerID primitive.ObjectID, variant string) {
	aid, role := actor(who)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventApplicationSubmitted,
		ActorID:       aid,
		ActorRole:     role,
		ApplicationID: ptr(applicationID),
		OpportunityID: ptr(opportunityID),
		VolunteerID:   ptr(volunteerID),
		Success:       true,
		Details:       map[string]string{"variant": variant},
	})
}

// StatusChanged logs a provider decision.
func (l *Logger) StatusChanged(ctx context.Context, who identity.Identity, applicationID, opportunityID primitive.ObjectID, from, to models.ApplicationStatus) {
	aid, role := actor(who)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventApplicationStatus,
		ActorID:       aid,
		ActorRole:     role,
		ApplicationID: ptr(applicationID),
		OpportunityID: ptr(opportunityID),
		Success:       true,
		Details:       map[string]string{"from": string(from), "to": string(to)},
	})
}

// CompletionChanged logs a completion toggle.
func (l *Logger) CompletionChanged(ctx context.Context, who identity.Identity, applicationID primitive.ObjectID, completed bool) {
	aid, role := actor(who)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventApplicationCompletion,
		ActorID:       aid,
		ActorRole:     role,
		ApplicationID: ptr(applicationID),
		Success:       true,
		Details:       map[string]string{"is_completed": strconv.FormatBool(completed)},
	})
}

// Withdrawn logs a volunteer withdrawal.
func (l *Logger) Withdrawn(ctx context.Context, who identity.Identity, applicationID, opportunityID primitive.ObjectID) {
	aid, role := actor(who)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventApplicationWithdrawn,
		ActorID:       aid,
		ActorRole:     role,
		ApplicationID: ptr(applicationID),
		OpportunityID: ptr(opportunityID),
		Success:       true,
	})
}

// OpportunityChanged logs a create or update.
func (l *Logger) OpportunityChanged(ctx context.Context, who identity.Identity, eventType string, opportunityID, providerID primitive.ObjectID, title string) {
	aid, role := actor(who)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     eventType,
		ActorID:       aid,
		ActorRole:     role,
		OpportunityID: ptr(opportunityID),
		ProviderID:    ptr(providerID),
		Success:       true,
		Details:       map[string]string{"title": title},
	})
}

// OpportunityDeleted logs a delete and how many applications it removed.
func (l *Logger) OpportunityDeleted(ctx context.Context, who identity.Identity, opportunityID, providerID primitive.ObjectID, removedApplications int64) {
	aid, role := actor(who)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventOpportunityDeleted,
		ActorID:       aid,
		ActorRole:     role,
		OpportunityID: ptr(opportunityID),
		ProviderID:    ptr(providerID),
		Success:       true,
		Details:       map[string]string{"removed_applications": strconv.FormatInt(removedApplications, 10)},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin & system events                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ProviderDeleted logs an admin cascade delete.
func (l *Logger) ProviderDeleted(ctx context.Context, who identity.Identity, providerID primitive.ObjectID, opportunities, applications int64) {
	aid, role := actor(who)
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventProviderDeleted,
		ActorID:    aid,
		ActorRole:  role,
		ProviderID: ptr(providerID),
		Success:    true,
		Details: map[string]string{
			"opportunities": strconv.FormatInt(opportunities, 10),
			"applications":  strconv.FormatInt(applications, 10),
		},
	})
}

// MirrorRepaired logs one repair made by the reconciler.
func (l *Logger) MirrorRepaired(ctx context.Context, opportunityID, volunteerID primitive.ObjectID, action string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySystem,
		EventType:     audit.EventMirrorRepaired,
		OpportunityID: ptr(opportunityID),
		VolunteerID:   ptr(volunteerID),
		Success:       true,
		Details:       map[string]string{"action": action},
	})
}
