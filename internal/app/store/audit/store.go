// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth     = "auth"
	CategoryWorkflow = "workflow"
	CategoryAdmin    = "admin"
	CategorySystem   = "system"
)

// Auth event types
const (
	EventSignup          = "signup"
	EventLoginSuccess    = "login_success"
	EventLoginFailed     = "login_failed"
	EventLoginThrottled  = "login_throttled"
	EventSignupThrottled = "signup_throttled"
)

// Workflow event types
const (
	EventApplicationSubmitted  = "application_submitted"
	EventApplicationStatus     = "application_status_changed"
	EventApplicationCompletion = "application_completion_changed"
	EventApplicationWithdrawn  = "application_withdrawn"
	EventOpportunityCreated    = "opportunity_created"
	EventOpportunityUpdated    = "opportunity_updated"
	EventOpportunityDeleted    = "opportunity_deleted"
)

// Admin and system event types
const (
	EventProviderDeleted = "provider_deleted"
	EventMirrorRepaired  = "mirror_repaired"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // user that performed the action
	ActorRole string              `bson:"actor_role,omitempty" json:"actor_role,omitempty"`

	// What
	ApplicationID *primitive.ObjectID `bson:"application_id,omitempty" json:"application_id,omitempty"`
	OpportunityID *primitive.ObjectID `bson:"opportunity_id,omitempty" json:"opportunity_id,omitempty"`
	VolunteerID   *primitive.ObjectID `bson:"volunteer_id,omitempty" json:"volunteer_id,omitempty"`
	ProviderID    *primitive.ObjectID `bson:"provider_id,omitempty" json:"provider_id,omitempty"`

	// Context
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	ActorID       *primitive.ObjectID
	ApplicationID *primitive.ObjectID
	OpportunityID *primitive.ObjectID
	Category      string
	EventType     string
	StartTime     *time.Time
	EndTime       *time.Time
	Limit         int64
	Offset        int64
}

func (f QueryFilter) bson() bson.M {
	query := bson.M{}
	if f.ActorID != nil {
		query["actor_id"] = *f.ActorID
	}
	if f.ApplicationID != nil {
		query["application_id"] = *f.ApplicationID
	}
	if f.OpportunityID != nil {
		query["opportunity_id"] = *f.OpportunityID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		query["timestamp"] = tq
	}
	return query
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// GetByApplication retrieves the history of one application.
func (s *Store) GetByApplication(ctx context.Context, applicationID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{ApplicationID: &applicationID, Limit: limit})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}
