package applications_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/greenreach/internal/app/store/audit"
	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/ratelimit"
	"github.com/dalemusser/greenreach/internal/app/workflow/applications"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/greenreach/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newService(t *testing.T, db *mongo.Database) *applications.Service {
	t.Helper()
	al := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{
		Auth: auditlog.ModeDB, Workflow: auditlog.ModeDB, Admin: auditlog.ModeDB,
	})
	return applications.New(db, al, zap.NewNop())
}

func requireKind(t *testing.T, err error, kind apierr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apierr.KindOf(err), "error: %v", err)
}

func ptr[T any](v T) *T { return &v }

func TestSubmit_CreatesBothSides(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", false)

	view, err := newService(t, db).Submit(ctx, testutil.VolunteerIdentity(v), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, view.Status)
	assert.False(t, view.IsCompleted)
	require.NotNil(t, view.Opportunity)
	assert.Equal(t, "River Trust", view.Opportunity.ProviderName)

	gotVol, err := volunteerstore.New(db).GetByID(ctx, v.ID)
	require.NoError(t, err)
	entry, ok := gotVol.Application(view.ID)
	require.True(t, ok)
	assert.Equal(t, o.ID, entry.OpportunityID)

	gotOpp, err := opportunitystore.New(db).GetByID(ctx, o.ID)
	require.NoError(t, err)
	m, ok := gotOpp.ApplicantFor(v.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, m.Status)

	events, err := audit.New(db).GetByApplication(ctx, view.ID, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSubmit_Twice_Conflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", false)
	svc := newService(t, db)

	_, err := svc.Submit(ctx, testutil.VolunteerIdentity(v), o.ID)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, testutil.VolunteerIdentity(v), o.ID)
	requireKind(t, err, apierr.KindConflict)

	gotOpp, err := opportunitystore.New(db).GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, gotOpp.Applicants, 1)
}

func TestSubmit_MirrorOnlyEntryCountsAsApplied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	v := fx.CreateVolunteer(ctx, "Ada Green", false)
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup", testutil.WithApplicants(models.Applicant{
		ID: primitive.NewObjectID(), VolunteerID: v.ID, Status: models.StatusPending, AppliedAt: time.Now().UTC(),
	}))

	_, err := newService(t, db).Submit(ctx, testutil.VolunteerIdentity(v), o.ID)
	requireKind(t, err, apierr.KindConflict)
}

func TestSubmit_DeadlinePassed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	deadline := time.Now().UTC().Add(24 * time.Hour)
	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup", testutil.WithDeadline(deadline))
	v := fx.CreateVolunteer(ctx, "Ada Green", false)

	svc := newService(t, db).WithClock(func() time.Time { return deadline.Add(time.Minute) })
	_, err := svc.Submit(ctx, testutil.VolunteerIdentity(v), o.ID)
	requireKind(t, err, apierr.KindConflict)
}

func TestSubmit_Preconditions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	svc := newService(t, db)

	tests := []struct {
		name   string
		caller identity.Identity
		oppID  primitive.ObjectID
		kind   apierr.Kind
	}{
		{"provider cannot apply", testutil.ProviderIdentity(p), o.ID, apierr.KindForbidden},
		{"admin cannot apply", testutil.AnonymousIdentity(identity.RoleAdmin), o.ID, apierr.KindForbidden},
		{"no volunteer profile", testutil.AnonymousIdentity(identity.RoleVolunteer), o.ID, apierr.KindNotFound},
		{"unknown opportunity", testutil.VolunteerIdentity(fx.CreateVolunteer(ctx, "Bo", false)), primitive.NewObjectID(), apierr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.caller, tt.oppID)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestRegister_RequiresCompleteProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", false)

	_, err := newService(t, db).Register(ctx, testutil.VolunteerIdentity(v), o.ID)
	requireKind(t, err, apierr.KindConflict)
}

func TestRegister_RefusedWhenFull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup", testutil.WithVolunteersRequired(1))
	first := fx.CreateVolunteer(ctx, "Ada Green", true)
	fx.Apply(ctx, first.ID, o.ID, models.StatusAccepted)
	second := fx.CreateVolunteer(ctx, "Bo Field", true)
	svc := newService(t, db)

	_, err := svc.Register(ctx, testutil.VolunteerIdentity(second), o.ID)
	requireKind(t, err, apierr.KindConflict)

	// Plain submission ignores capacity.
	_, err = svc.Submit(ctx, testutil.VolunteerIdentity(second), o.ID)
	require.NoError(t, err)
}

func TestSubmit_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o1 := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	o2 := fx.CreateOpportunity(ctx, p.ID, "Tree Planting")
	v := fx.CreateVolunteer(ctx, "Ada Green", false)

	svc := newService(t, db).WithSubmitLimiter(ratelimit.New(time.Hour, 1))
	_, err := svc.Submit(ctx, testutil.VolunteerIdentity(v), o1.ID)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, testutil.VolunteerIdentity(v), o2.ID)
	requireKind(t, err, apierr.KindRateLimited)
}

func TestWorkflow_AcceptCompleteThenWithdrawFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", true)
	svc := newService(t, db)
	volID := testutil.VolunteerIdentity(v)
	provID := testutil.ProviderIdentity(p)

	app, err := svc.Submit(ctx, volID, o.ID)
	require.NoError(t, err)

	accepted, err := svc.UpdateStatus(ctx, provID, app.ID, models.StatusAccepted, ptr("Welcome aboard"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)
	assert.Equal(t, "Welcome aboard", accepted.FeedbackNote)

	gotProv, err := providerstore.New(db).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotProv.TotalVolunteers)

	gotOpp, err := opportunitystore.New(db).GetByID(ctx, o.ID)
	require.NoError(t, err)
	m, ok := gotOpp.ApplicantFor(v.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusAccepted, m.Status)

	done, err := svc.UpdateCompletion(ctx, volID, app.ID, true)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletionDate)

	err = svc.Withdraw(ctx, volID, app.ID)
	requireKind(t, err, apierr.KindConflict)

	got, err := svc.GetByID(ctx, volID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.True(t, got.IsCompleted)
}

func TestUpdateStatus_Rules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	other := fx.CreateProvider(ctx, "Other Org")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	svc := newService(t, db)

	pending := fx.Apply(ctx, fx.CreateVolunteer(ctx, "Ada", true).ID, o.ID, models.StatusPending)
	rejected := fx.Apply(ctx, fx.CreateVolunteer(ctx, "Bo", true).ID, o.ID, models.StatusRejected)

	tests := []struct {
		name   string
		caller identity.Identity
		appID  primitive.ObjectID
		status models.ApplicationStatus
		note   *string
		kind   apierr.Kind
	}{
		{"volunteer cannot review", testutil.AnonymousIdentity(identity.RoleVolunteer), pending.ID, models.StatusAccepted, nil, apierr.KindForbidden},
		{"admin cannot review", testutil.AnonymousIdentity(identity.RoleAdmin), pending.ID, models.StatusAccepted, nil, apierr.KindForbidden},
		{"non-owner provider", testutil.ProviderIdentity(other), pending.ID, models.StatusAccepted, nil, apierr.KindForbidden},
		{"unknown status", testutil.ProviderIdentity(p), pending.ID, "Maybe", nil, apierr.KindValidation},
		{"note too long", testutil.ProviderIdentity(p), pending.ID, models.StatusAccepted, ptr(strings.Repeat("a", 1001)), apierr.KindValidation},
		{"unknown application", testutil.ProviderIdentity(p), primitive.NewObjectID(), models.StatusAccepted, nil, apierr.KindNotFound},
		{"rejected is terminal", testutil.ProviderIdentity(p), rejected.ID, models.StatusAccepted, nil, apierr.KindInvalidState},
		{"same status is not a transition", testutil.ProviderIdentity(p), pending.ID, models.StatusPending, nil, apierr.KindInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(ctx, tt.caller, tt.appID, tt.status, tt.note)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestUpdateStatus_RejectAcceptedClearsCompletion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", true)
	a := fx.Apply(ctx, v.ID, o.ID, models.StatusAccepted)
	svc := newService(t, db)

	_, err := svc.UpdateCompletion(ctx, testutil.ProviderIdentity(p), a.ID, true)
	require.NoError(t, err)

	view, err := svc.UpdateStatus(ctx, testutil.ProviderIdentity(p), a.ID, models.StatusRejected, ptr("<b>No</b> show"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, view.Status)
	assert.False(t, view.IsCompleted)
	assert.Nil(t, view.CompletionDate)
	assert.Equal(t, "No show", view.FeedbackNote)

	gotVol, err := volunteerstore.New(db).GetByID(ctx, v.ID)
	require.NoError(t, err)
	entry, ok := gotVol.Application(a.ID)
	require.True(t, ok)
	assert.False(t, entry.IsCompleted)
	assert.Nil(t, entry.CompletionDate)

	gotOpp, err := opportunitystore.New(db).GetByID(ctx, o.ID)
	require.NoError(t, err)
	m, _ := gotOpp.ApplicantFor(v.ID)
	assert.Equal(t, models.StatusRejected, m.Status)
}

func TestUpdateStatus_MissingMirrorStillCommits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", true)
	a := fx.AddCanonical(ctx, v.ID, o.ID, models.StatusPending)

	view, err := newService(t, db).UpdateStatus(ctx, testutil.ProviderIdentity(p), a.ID, models.StatusAccepted, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, view.Status)
}

func TestUpdateCompletion_Rules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	other := fx.CreateProvider(ctx, "Other Org")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	owner := fx.CreateVolunteer(ctx, "Ada", true)
	pending := fx.Apply(ctx, owner.ID, o.ID, models.StatusPending)
	o2 := fx.CreateOpportunity(ctx, p.ID, "Tree Planting")
	accepted := fx.Apply(ctx, owner.ID, o2.ID, models.StatusAccepted)
	svc := newService(t, db)

	tests := []struct {
		name   string
		caller identity.Identity
		appID  primitive.ObjectID
		kind   apierr.Kind
	}{
		{"admin cannot toggle", testutil.AnonymousIdentity(identity.RoleAdmin), accepted.ID, apierr.KindForbidden},
		{"other volunteer", testutil.VolunteerIdentity(fx.CreateVolunteer(ctx, "Bo", true)), accepted.ID, apierr.KindForbidden},
		{"non-owner provider", testutil.ProviderIdentity(other), accepted.ID, apierr.KindForbidden},
		{"pending cannot complete", testutil.VolunteerIdentity(owner), pending.ID, apierr.KindInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateCompletion(ctx, tt.caller, tt.appID, true)
			requireKind(t, err, tt.kind)
		})
	}

	view, err := svc.UpdateCompletion(ctx, testutil.VolunteerIdentity(owner), accepted.ID, true)
	require.NoError(t, err)
	assert.True(t, view.IsCompleted)

	view, err = svc.UpdateCompletion(ctx, testutil.ProviderIdentity(p), accepted.ID, false)
	require.NoError(t, err)
	assert.False(t, view.IsCompleted)
	assert.Nil(t, view.CompletionDate)
}

func TestWithdraw_RemovesBothSides(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", false)
	a := fx.Apply(ctx, v.ID, o.ID, models.StatusPending)
	svc := newService(t, db)

	err := svc.Withdraw(ctx, testutil.VolunteerIdentity(fx.CreateVolunteer(ctx, "Bo", false)), a.ID)
	requireKind(t, err, apierr.KindForbidden)
	err = svc.Withdraw(ctx, testutil.ProviderIdentity(p), a.ID)
	requireKind(t, err, apierr.KindForbidden)

	require.NoError(t, svc.Withdraw(ctx, testutil.VolunteerIdentity(v), a.ID))

	gotVol, err := volunteerstore.New(db).GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, gotVol.AppliedOpportunities)
	gotOpp, err := opportunitystore.New(db).GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, gotOpp.Applicants)

	err = svc.Withdraw(ctx, testutil.VolunteerIdentity(v), a.ID)
	requireKind(t, err, apierr.KindNotFound)

	// Withdrawing frees the pair for a new application.
	_, err = svc.Submit(ctx, testutil.VolunteerIdentity(v), o.ID)
	require.NoError(t, err)
}

func TestListForCaller(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	svc := newService(t, db)

	list, err := svc.ListForCaller(ctx, testutil.AnonymousIdentity(identity.RoleVolunteer))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListForCaller(ctx, testutil.AnonymousIdentity(identity.RoleProvider))
	requireKind(t, err, apierr.KindForbidden)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada Green", false)
	fx.Apply(ctx, v.ID, o.ID, models.StatusPending)

	list, err = svc.ListForCaller(ctx, testutil.VolunteerIdentity(v))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Opportunity)
	assert.Equal(t, "Bank Cleanup", list[0].Opportunity.Title)
	assert.Equal(t, "River Trust", list[0].Opportunity.ProviderName)
	assert.Nil(t, list[0].Volunteer)
}

func TestListAll_AdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	svc := newService(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	fx.Apply(ctx, fx.CreateVolunteer(ctx, "Ada", false).ID, o.ID, models.StatusPending)
	fx.Apply(ctx, fx.CreateVolunteer(ctx, "Bo", false).ID, o.ID, models.StatusRejected)
	fx.CreateVolunteer(ctx, "Cy", false)

	_, err := svc.ListAll(ctx, testutil.ProviderIdentity(p))
	requireKind(t, err, apierr.KindForbidden)

	list, err := svc.ListAll(ctx, testutil.AdminIdentity(fx.CreateAdmin(ctx, "Root")))
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, a := range list {
		assert.NotNil(t, a.Volunteer)
	}
}

func TestListForOpportunity_JoinsCanonicalData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	svc := newService(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	ada := fx.CreateVolunteer(ctx, "Ada", true)
	a := fx.Apply(ctx, ada.ID, o.ID, models.StatusAccepted)
	_, err := svc.UpdateCompletion(ctx, testutil.VolunteerIdentity(ada), a.ID, true)
	require.NoError(t, err)
	bo := fx.CreateVolunteer(ctx, "Bo", true)
	fx.AddCanonical(ctx, bo.ID, o.ID, models.StatusPending)

	_, err = svc.ListForOpportunity(ctx, testutil.ProviderIdentity(fx.CreateProvider(ctx, "Other")), o.ID)
	requireKind(t, err, apierr.KindForbidden)
	_, err = svc.ListForOpportunity(ctx, testutil.AnonymousIdentity(identity.RoleVolunteer), o.ID)
	requireKind(t, err, apierr.KindForbidden)

	list, err := svc.ListForOpportunity(ctx, testutil.ProviderIdentity(p), o.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ApplicationID)
	assert.Equal(t, "Ada", list[0].FullName)
	assert.True(t, list[0].IsCompleted)
	assert.NotNil(t, list[0].CompletionDate)
	assert.Equal(t, bo.ID, list[1].VolunteerID)
	assert.Equal(t, models.StatusPending, list[1].Status)

	list, err = svc.ListForOpportunity(ctx, testutil.AdminIdentity(fx.CreateAdmin(ctx, "Root")), o.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetByID_Scoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	svc := newService(t, db)

	p := fx.CreateProvider(ctx, "River Trust")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada", false)
	a := fx.Apply(ctx, v.ID, o.ID, models.StatusPending)

	tests := []struct {
		name   string
		caller identity.Identity
		kind   *apierr.Kind
	}{
		{"owner volunteer", testutil.VolunteerIdentity(v), nil},
		{"owning provider", testutil.ProviderIdentity(p), nil},
		{"admin", testutil.AdminIdentity(fx.CreateAdmin(ctx, "Root")), nil},
		{"other volunteer", testutil.VolunteerIdentity(fx.CreateVolunteer(ctx, "Bo", false)), ptr(apierr.KindForbidden)},
		{"other provider", testutil.ProviderIdentity(fx.CreateProvider(ctx, "Other")), ptr(apierr.KindForbidden)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.GetByID(ctx, tt.caller, a.ID)
			if tt.kind != nil {
				requireKind(t, err, *tt.kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, a.ID, view.ID)
			require.NotNil(t, view.Opportunity)
			assert.Equal(t, "River Trust", view.Opportunity.ProviderName)
		})
	}

	_, err := svc.GetByID(ctx, testutil.VolunteerIdentity(v), primitive.NewObjectID())
	requireKind(t, err, apierr.KindNotFound)
}
