package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      text.Fold(email),
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, primitive.NewObjectID().Hex()+"@admin.test", "admin")
}

// CreateProvider inserts a provider user and its organization profile.
func (f *Fixtures) CreateProvider(ctx context.Context, orgName string) models.Provider {
	f.t.Helper()

	user := f.CreateUser(ctx, orgName+" Owner", primitive.NewObjectID().Hex()+"@provider.test", "provider")
	now := time.Now().UTC()
	p := models.Provider{
		ID:               primitive.NewObjectID(),
		UserID:           user.ID,
		OrganizationName: orgName,
		NameCI:           text.Fold(orgName),
		LogoURL:          "https://example.org/logo.png",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("providers").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test provider: %v", err)
	}
	return p
}

// CreateVolunteer inserts a volunteer user and profile.
// When complete is true all three onboarding steps are marked done.
func (f *Fixtures) CreateVolunteer(ctx context.Context, fullName string, complete bool) models.Volunteer {
	f.t.Helper()

	user := f.CreateUser(ctx, fullName, primitive.NewObjectID().Hex()+"@volunteer.test", "volunteer")
	now := time.Now().UTC()
	v := models.Volunteer{
		ID:                   primitive.NewObjectID(),
		UserID:               user.ID,
		FullName:             fullName,
		FullNameCI:           text.Fold(fullName),
		PhotoURL:             "https://example.org/me.png",
		Steps:                models.ProfileSteps{Step1: complete, Step2: complete, Step3: complete},
		AppliedOpportunities: []models.AppliedOpportunity{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if _, err := f.db.Collection("volunteers").InsertOne(ctx, v); err != nil {
		f.t.Fatalf("failed to create test volunteer: %v", err)
	}
	return v
}

// OpportunityOption customizes an opportunity built by CreateOpportunity.
type OpportunityOption func(*models.Opportunity)

// WithDeadline sets the application deadline.
func WithDeadline(d time.Time) OpportunityOption {
	return func(o *models.Opportunity) { o.Schedule.ApplicationDeadline = &d }
}

// WithVolunteersRequired sets the required volunteer count.
func WithVolunteersRequired(n int) OpportunityOption {
	return func(o *models.Opportunity) { o.VolunteersRequired = n }
}

// WithApplicants seeds the mirror list directly.
func WithApplicants(as ...models.Applicant) OpportunityOption {
	return func(o *models.Opportunity) { o.Applicants = append(o.Applicants, as...) }
}

// CreateOpportunity inserts an unpaid opportunity owned by providerID.
func (f *Fixtures) CreateOpportunity(ctx context.Context, providerID primitive.ObjectID, title string, opts ...OpportunityOption) models.Opportunity {
	f.t.Helper()

	now := time.Now().UTC()
	o := models.Opportunity{
		ID:                 primitive.NewObjectID(),
		ProviderID:         providerID,
		Title:              title,
		TitleCI:            text.Fold(title),
		Description:        "Help restore the riverbank.",
		Type:               "in-person",
		Categories:         []string{"conservation"},
		VolunteersRequired: 5,
		Schedule: models.Schedule{
			Location:  "Riverside Park",
			StartDate: now.Add(7 * 24 * time.Hour),
			EndDate:   now.Add(8 * 24 * time.Hour),
		},
		Applicants: []models.Applicant{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := f.db.Collection("opportunities").InsertOne(ctx, o); err != nil {
		f.t.Fatalf("failed to create test opportunity: %v", err)
	}
	return o
}

// AddCanonical appends a canonical entry to the volunteer without touching the
// opportunity mirror.
func (f *Fixtures) AddCanonical(ctx context.Context, volunteerID, opportunityID primitive.ObjectID, st models.ApplicationStatus) models.AppliedOpportunity {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := models.AppliedOpportunity{
		ID:            primitive.NewObjectID(),
		OpportunityID: opportunityID,
		Status:        st,
		AppliedAt:     now,
		UpdatedAt:     now,
	}
	_, err := f.db.Collection("volunteers").UpdateByID(ctx, volunteerID,
		bson.M{"$push": bson.M{"applied_opportunities": a}})
	if err != nil {
		f.t.Fatalf("failed to add canonical entry: %v", err)
	}
	return a
}

// Apply creates a consistent application: the canonical entry plus its mirror.
func (f *Fixtures) Apply(ctx context.Context, volunteerID, opportunityID primitive.ObjectID, st models.ApplicationStatus) models.AppliedOpportunity {
	f.t.Helper()

	a := f.AddCanonical(ctx, volunteerID, opportunityID, st)
	mirror := models.Applicant{
		ID:          primitive.NewObjectID(),
		VolunteerID: volunteerID,
		Status:      st,
		AppliedAt:   a.AppliedAt,
	}
	_, err := f.db.Collection("opportunities").UpdateByID(ctx, opportunityID,
		bson.M{"$push": bson.M{"applicants": mirror}})
	if err != nil {
		f.t.Fatalf("failed to add mirror entry: %v", err)
	}
	return a
}

// AdminIdentity returns a caller identity for an admin user.
func AdminIdentity(u models.User) identity.Identity {
	return identity.Identity{UserID: u.ID, Role: identity.RoleAdmin, Name: u.FullName}
}

// ProviderIdentity returns the caller identity that owns p.
func ProviderIdentity(p models.Provider) identity.Identity {
	return identity.Identity{UserID: p.UserID, Role: identity.RoleProvider, Name: p.OrganizationName}
}

// VolunteerIdentity returns the caller identity that owns v.
func VolunteerIdentity(v models.Volunteer) identity.Identity {
	return identity.Identity{UserID: v.UserID, Role: identity.RoleVolunteer, Name: v.FullName}
}

// AnonymousIdentity returns a valid identity with no backing profile.
func AnonymousIdentity(role identity.Role) identity.Identity {
	return identity.Identity{UserID: primitive.NewObjectID(), Role: role, Name: "Nobody"}
}
