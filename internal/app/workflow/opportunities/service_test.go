package opportunities_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/greenreach/internal/app/store/audit"
	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	userstore "github.com/dalemusser/greenreach/internal/app/store/users"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/paging"
	"github.com/dalemusser/greenreach/internal/app/workflow/opportunities"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/greenreach/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newService(t *testing.T, db *mongo.Database) *opportunities.Service {
	t.Helper()
	al := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{
		Workflow: auditlog.ModeDB, Admin: auditlog.ModeDB,
	})
	return opportunities.New(db, al, zap.NewNop())
}

func validInput() opportunities.Input {
	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Millisecond)
	return opportunities.Input{
		Title:              "Dune Restoration",
		Description:        "<p>Plant marram grass.</p><script>alert(1)</script>",
		Type:               opportunities.TypeInPerson,
		Categories:         []string{"Coastal", "conservation", "coastal"},
		VolunteersRequired: 3,
		Schedule: opportunities.ScheduleInput{
			Location:  "North Beach",
			StartDate: start,
			EndDate:   start.Add(4 * time.Hour),
		},
	}
}

func requireKind(t *testing.T, err error, kind apierr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apierr.KindOf(err), "error: %v", err)
}

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")

	view, err := newService(t, db).Create(ctx, testutil.ProviderIdentity(p), validInput())
	require.NoError(t, err)
	assert.Equal(t, p.ID, view.ProviderID)
	assert.Equal(t, "Coast Care", view.ProviderName)
	assert.Equal(t, []string{"coastal", "conservation"}, view.Categories)
	assert.NotContains(t, view.Description, "<script>")
	assert.Contains(t, view.Description, "<p>")
	assert.Equal(t, 0, view.ApplicantCount)

	got, err := opportunitystore.New(db).GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Applicants)
	assert.Equal(t, "dune restoration", got.TitleCI)
}

func TestCreate_Rejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	svc := newService(t, db)

	tests := []struct {
		name   string
		caller identity.Identity
		mutate func(*opportunities.Input)
		kind   apierr.Kind
	}{
		{"volunteer", testutil.AnonymousIdentity(identity.RoleVolunteer), nil, apierr.KindForbidden},
		{"admin", testutil.AnonymousIdentity(identity.RoleAdmin), nil, apierr.KindForbidden},
		{"no provider profile", testutil.AnonymousIdentity(identity.RoleProvider), nil, apierr.KindNotFound},
		{"blank title", testutil.ProviderIdentity(p), func(in *opportunities.Input) { in.Title = "  " }, apierr.KindValidation},
		{"unknown type", testutil.ProviderIdentity(p), func(in *opportunities.Input) { in.Type = "remote-ish" }, apierr.KindValidation},
		{"zero volunteers", testutil.ProviderIdentity(p), func(in *opportunities.Input) { in.VolunteersRequired = 0 }, apierr.KindValidation},
		{"paid without compensation", testutil.ProviderIdentity(p), func(in *opportunities.Input) { in.IsPaid = true }, apierr.KindValidation},
		{"compensation when unpaid", testutil.ProviderIdentity(p), func(in *opportunities.Input) { in.Compensation = "$20/h" }, apierr.KindValidation},
		{"end before start", testutil.ProviderIdentity(p), func(in *opportunities.Input) {
			in.Schedule.EndDate = in.Schedule.StartDate.Add(-time.Hour)
		}, apierr.KindValidation},
		{"missing start", testutil.ProviderIdentity(p), func(in *opportunities.Input) { in.Schedule.StartDate = time.Time{} }, apierr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			_, err := svc.Create(ctx, tt.caller, in)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestCreate_PaidWithCompensation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")

	in := validInput()
	in.IsPaid = true
	in.Compensation = " $20/hour "
	view, err := newService(t, db).Create(ctx, testutil.ProviderIdentity(p), in)
	require.NoError(t, err)
	assert.True(t, view.IsPaid)
	assert.Equal(t, "$20/hour", view.Compensation)
}

func TestUpdate_KeepsOwnerAndApplicants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	v := fx.CreateVolunteer(ctx, "Ada", false)
	fx.Apply(ctx, v.ID, o.ID, models.StatusPending)
	svc := newService(t, db)

	in := validInput()
	in.Title = "Bank Cleanup (Saturday)"
	view, err := svc.Update(ctx, testutil.ProviderIdentity(p), o.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Bank Cleanup (Saturday)", view.Title)
	assert.Equal(t, p.ID, view.ProviderID)
	assert.Equal(t, 1, view.ApplicantCount)

	other := fx.CreateProvider(ctx, "Other Org")
	_, err = svc.Update(ctx, testutil.ProviderIdentity(other), o.ID, in)
	requireKind(t, err, apierr.KindForbidden)

	_, err = svc.Update(ctx, testutil.ProviderIdentity(p), primitive.NewObjectID(), in)
	requireKind(t, err, apierr.KindNotFound)
}

func TestGetAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	q := fx.CreateProvider(ctx, "Forest Friends")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	fx.CreateOpportunity(ctx, q.ID, "Tree Planting")
	fx.Apply(ctx, fx.CreateVolunteer(ctx, "Ada", false).ID, o.ID, models.StatusAccepted)
	svc := newService(t, db)

	view, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coast Care", view.ProviderName)
	assert.Equal(t, 1, view.AcceptedCount)

	_, err = svc.Get(ctx, primitive.NewObjectID())
	requireKind(t, err, apierr.KindNotFound)

	all, err := svc.List(ctx, opportunitystore.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, opportunitystore.Filter{ProviderID: &q.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Tree Planting", mine[0].Title)

	byTitle, err := svc.List(ctx, opportunitystore.Filter{Title: "bank"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, o.ID, byTitle[0].ID)
}

func TestBrowse_PagesByTitle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	for _, title := range []string{"Eelgrass Survey", "Bank Cleanup", "Dune Planting", "Alder Removal", "Creek Walk"} {
		fx.CreateOpportunity(ctx, p.ID, title)
	}
	svc := newService(t, db)
	titles := func(pg opportunities.Page) []string {
		var out []string
		for _, v := range pg.Opportunities {
			out = append(out, v.Title)
		}
		return out
	}

	first, err := svc.Browse(ctx, opportunitystore.Filter{}, paging.Params{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alder Removal", "Bank Cleanup"}, titles(first))
	assert.False(t, first.HasPrev)
	require.True(t, first.HasNext)
	assert.Empty(t, first.PrevCursor)

	second, err := svc.Browse(ctx, opportunitystore.Filter{}, paging.Params{After: first.NextCursor, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Creek Walk", "Dune Planting"}, titles(second))
	assert.True(t, second.HasPrev)
	require.True(t, second.HasNext)

	last, err := svc.Browse(ctx, opportunitystore.Filter{}, paging.Params{After: second.NextCursor, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Eelgrass Survey"}, titles(last))
	assert.False(t, last.HasNext)

	back, err := svc.Browse(ctx, opportunitystore.Filter{}, paging.Params{Before: second.PrevCursor, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alder Removal", "Bank Cleanup"}, titles(back))
	assert.False(t, back.HasPrev)
	assert.True(t, back.HasNext)

	filtered, err := svc.Browse(ctx, opportunitystore.Filter{Title: "d"}, paging.Params{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune Planting"}, titles(filtered))
}

func TestDelete_RequiresConfirmWithApplicants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	keep := fx.CreateOpportunity(ctx, p.ID, "Tree Planting")
	v := fx.CreateVolunteer(ctx, "Ada", false)
	fx.Apply(ctx, v.ID, o.ID, models.StatusPending)
	fx.Apply(ctx, v.ID, keep.ID, models.StatusPending)
	svc := newService(t, db)

	_, err := svc.Delete(ctx, testutil.ProviderIdentity(p), o.ID, false)
	requireKind(t, err, apierr.KindConflict)

	_, err = svc.Delete(ctx, testutil.ProviderIdentity(fx.CreateProvider(ctx, "Other")), o.ID, true)
	requireKind(t, err, apierr.KindForbidden)
	_, err = svc.Delete(ctx, testutil.VolunteerIdentity(v), o.ID, true)
	requireKind(t, err, apierr.KindForbidden)

	res, err := svc.Delete(ctx, testutil.ProviderIdentity(p), o.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Opportunities)
	assert.Equal(t, int64(1), res.Applications)

	_, err = opportunitystore.New(db).GetByID(ctx, o.ID)
	assert.ErrorIs(t, err, opportunitystore.ErrNotFound)

	gotVol, err := volunteerstore.New(db).GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, gotVol.AppliedOpportunities, 1)
	assert.Equal(t, keep.ID, gotVol.AppliedOpportunities[0].OpportunityID)

	events, err := audit.New(db).Query(ctx, audit.QueryFilter{EventType: audit.EventOpportunityDeleted})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0].Details["removed_applications"])
}

func TestDelete_DanglingCanonicalEntryNeedsConfirm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	fx.AddCanonical(ctx, fx.CreateVolunteer(ctx, "Ada", false).ID, o.ID, models.StatusPending)

	_, err := newService(t, db).Delete(ctx, testutil.ProviderIdentity(p), o.ID, false)
	requireKind(t, err, apierr.KindConflict)
}

func TestDelete_SubmitAfterCheckStillNeedsConfirm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	o := fx.CreateOpportunity(ctx, p.ID, "Creek Walk")
	v := fx.CreateVolunteer(ctx, "Ada", true)
	svc := newService(t, db)

	// A volunteer applies after the applicant check has already passed.
	svc.SetBeforeDelete(func(ctx context.Context) {
		fx.Apply(ctx, v.ID, o.ID, models.StatusPending)
	})

	_, err := svc.Delete(ctx, testutil.ProviderIdentity(p), o.ID, false)
	requireKind(t, err, apierr.KindConflict)

	got, err := opportunitystore.New(db).GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Applicants, 1)

	gotVol, err := volunteerstore.New(db).GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, gotVol.AppliedOpportunities, 1)
	assert.Equal(t, o.ID, gotVol.AppliedOpportunities[0].OpportunityID)
}

func TestDelete_AdminWithoutApplicants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	o := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	admin := testutil.AdminIdentity(fx.CreateAdmin(ctx, "Root"))
	svc := newService(t, db)

	res, err := svc.Delete(ctx, admin, o.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Opportunities)
	assert.Equal(t, int64(0), res.Applications)

	_, err = svc.Delete(ctx, admin, o.ID, false)
	requireKind(t, err, apierr.KindNotFound)
}

func TestDeleteProvider_Cascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	p := fx.CreateProvider(ctx, "Coast Care")
	q := fx.CreateProvider(ctx, "Forest Friends")
	o1 := fx.CreateOpportunity(ctx, p.ID, "Bank Cleanup")
	o2 := fx.CreateOpportunity(ctx, p.ID, "Dune Walk")
	o3 := fx.CreateOpportunity(ctx, q.ID, "Tree Planting")
	v := fx.CreateVolunteer(ctx, "Ada", false)
	fx.Apply(ctx, v.ID, o1.ID, models.StatusPending)
	fx.Apply(ctx, v.ID, o2.ID, models.StatusAccepted)
	fx.Apply(ctx, v.ID, o3.ID, models.StatusPending)
	svc := newService(t, db)

	_, err := svc.DeleteProvider(ctx, testutil.ProviderIdentity(p), p.ID)
	requireKind(t, err, apierr.KindForbidden)

	admin := testutil.AdminIdentity(fx.CreateAdmin(ctx, "Root"))
	res, err := svc.DeleteProvider(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Opportunities)
	// Both entries live on one volunteer document.
	assert.Equal(t, int64(1), res.Applications)

	_, err = providerstore.New(db).GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, providerstore.ErrNotFound)

	gotVol, err := volunteerstore.New(db).GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, gotVol.AppliedOpportunities, 1)
	assert.Equal(t, o3.ID, gotVol.AppliedOpportunities[0].OpportunityID)

	u, err := userstore.New(db).GetByID(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, userstore.StatusDisabled, u.Status)

	_, err = svc.DeleteProvider(ctx, admin, p.ID)
	requireKind(t, err, apierr.KindNotFound)
}
