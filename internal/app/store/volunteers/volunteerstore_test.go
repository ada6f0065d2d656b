package volunteers_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/greenreach/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_PushApplication_OncePerOpportunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := volunteers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := fx.CreateVolunteer(ctx, "Rowan Birch", true)
	oppID := primitive.NewObjectID()
	now := time.Now().UTC()

	entry := models.AppliedOpportunity{
		ID:            primitive.NewObjectID(),
		OpportunityID: oppID,
		Status:        models.StatusPending,
		AppliedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.PushApplication(ctx, v.ID, entry); err != nil {
		t.Fatalf("PushApplication failed: %v", err)
	}

	entry.ID = primitive.NewObjectID()
	if err := store.PushApplication(ctx, v.ID, entry); !errors.Is(err, volunteers.ErrAlreadyApplied) {
		t.Errorf("second push: got %v, want ErrAlreadyApplied", err)
	}
	if err := store.PushApplication(ctx, primitive.NewObjectID(), entry); !errors.Is(err, volunteers.ErrNotFound) {
		t.Errorf("unknown volunteer: got %v, want ErrNotFound", err)
	}

	got, err := store.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.AppliedOpportunities) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.AppliedOpportunities))
	}
}

func TestStore_SetStatus_GuardsCurrentStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := volunteers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := fx.CreateVolunteer(ctx, "Rowan Birch", true)
	app := fx.AddCanonical(ctx, v.ID, primitive.NewObjectID(), models.StatusPending)
	now := time.Now().UTC()
	note := "See you Saturday"

	if err := store.SetStatus(ctx, v.ID, app.ID, models.StatusPending, models.StatusAccepted, &note, now); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	// A second writer that still believes the entry is Pending loses.
	err := store.SetStatus(ctx, v.ID, app.ID, models.StatusPending, models.StatusRejected, nil, now)
	if !errors.Is(err, volunteers.ErrStatusChanged) {
		t.Errorf("stale transition: got %v, want ErrStatusChanged", err)
	}

	got, err := store.GetByApplicationID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByApplicationID failed: %v", err)
	}
	entry, ok := got.Application(app.ID)
	if !ok {
		t.Fatal("entry missing")
	}
	if entry.Status != models.StatusAccepted {
		t.Errorf("Status = %q, want Accepted", entry.Status)
	}
	if entry.FeedbackNote != note {
		t.Errorf("FeedbackNote = %q, want %q", entry.FeedbackNote, note)
	}
}

func TestStore_SetCompletion_ClearedOnRejection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := volunteers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := fx.CreateVolunteer(ctx, "Rowan Birch", true)
	pending := fx.AddCanonical(ctx, v.ID, primitive.NewObjectID(), models.StatusPending)
	accepted := fx.AddCanonical(ctx, v.ID, primitive.NewObjectID(), models.StatusAccepted)
	now := time.Now().UTC()

	if err := store.SetCompletion(ctx, v.ID, pending.ID, true, now); !errors.Is(err, volunteers.ErrStatusChanged) {
		t.Errorf("completing a pending entry: got %v, want ErrStatusChanged", err)
	}
	if err := store.SetCompletion(ctx, v.ID, accepted.ID, true, now); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}

	got, _ := store.GetByID(ctx, v.ID)
	entry, _ := got.Application(accepted.ID)
	if !entry.IsCompleted || entry.CompletionDate == nil {
		t.Fatalf("expected completed entry with date, got %+v", entry)
	}

	if err := store.SetStatus(ctx, v.ID, accepted.ID, models.StatusAccepted, models.StatusRejected, nil, now); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, _ = store.GetByID(ctx, v.ID)
	entry, _ = got.Application(accepted.ID)
	if entry.IsCompleted || entry.CompletionDate != nil {
		t.Errorf("rejection should clear completion, got %+v", entry)
	}
}

func TestStore_PullPendingApplication(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := volunteers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := fx.CreateVolunteer(ctx, "Rowan Birch", true)
	pending := fx.AddCanonical(ctx, v.ID, primitive.NewObjectID(), models.StatusPending)
	accepted := fx.AddCanonical(ctx, v.ID, primitive.NewObjectID(), models.StatusAccepted)

	if err := store.PullPendingApplication(ctx, v.ID, accepted.ID); !errors.Is(err, volunteers.ErrStatusChanged) {
		t.Errorf("pulling accepted entry: got %v, want ErrStatusChanged", err)
	}
	if err := store.PullPendingApplication(ctx, v.ID, pending.ID); err != nil {
		t.Fatalf("PullPendingApplication failed: %v", err)
	}

	got, _ := store.GetByID(ctx, v.ID)
	if _, ok := got.Application(pending.ID); ok {
		t.Error("pending entry still present")
	}
	if _, ok := got.Application(accepted.ID); !ok {
		t.Error("accepted entry was removed")
	}
}

func TestStore_PullOpportunities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := volunteers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gone := primitive.NewObjectID()
	kept := primitive.NewObjectID()
	a := fx.CreateVolunteer(ctx, "Rowan Birch", true)
	b := fx.CreateVolunteer(ctx, "Hazel Moss", true)
	fx.AddCanonical(ctx, a.ID, gone, models.StatusPending)
	fx.AddCanonical(ctx, a.ID, kept, models.StatusAccepted)
	fx.AddCanonical(ctx, b.ID, gone, models.StatusRejected)

	n, err := store.PullOpportunities(ctx, []primitive.ObjectID{gone})
	if err != nil {
		t.Fatalf("PullOpportunities failed: %v", err)
	}
	if n != 2 {
		t.Errorf("modified = %d, want 2", n)
	}
	if n, _ := store.PullOpportunities(ctx, nil); n != 0 {
		t.Errorf("empty id list modified %d documents", n)
	}

	got, _ := store.GetByID(ctx, a.ID)
	if len(got.AppliedOpportunities) != 1 || got.AppliedOpportunities[0].OpportunityID != kept {
		t.Errorf("unexpected remaining entries: %+v", got.AppliedOpportunities)
	}
}

func TestStore_SetStep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := volunteers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := fx.CreateVolunteer(ctx, "Rowan Birch", false)

	err := store.SetStep(ctx, v.UserID, 2, volunteers.StepFields{
		Interests: []string{"Wetlands", "wetlands", "Birds"},
		Skills:    []string{"first aid"},
	})
	if err != nil {
		t.Fatalf("SetStep failed: %v", err)
	}
	if err := store.SetStep(ctx, v.UserID, 4, volunteers.StepFields{}); !errors.Is(err, volunteers.ErrBadStep) {
		t.Errorf("step 4: got %v, want ErrBadStep", err)
	}
	if err := store.SetStep(ctx, primitive.NewObjectID(), 1, volunteers.StepFields{FullName: "X"}); !errors.Is(err, volunteers.ErrNotFound) {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}

	got, err := store.GetByUserID(ctx, v.UserID)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if got.Steps.Step1 || !got.Steps.Step2 || got.Steps.Step3 {
		t.Errorf("Steps = %+v, want only step2", got.Steps)
	}
	if len(got.Interests) != 2 {
		t.Errorf("Interests = %v, want 2 folded tags", got.Interests)
	}
}

func TestStore_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := volunteers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := fx.CreateVolunteer(ctx, "Rowan Birch", false)

	ok, err := store.Exists(ctx, v.ID)
	if err != nil || !ok {
		t.Errorf("existing volunteer: ok=%v err=%v, want true, nil", ok, err)
	}
	ok, err = store.Exists(ctx, primitive.NewObjectID())
	if err != nil || ok {
		t.Errorf("unknown volunteer: ok=%v err=%v, want false, nil", ok, err)
	}
}
