package providers_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/greenreach/internal/app/store/providers"
	"github.com/dalemusser/greenreach/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := providers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProvider(ctx, "Coast Care")

	err := store.UpdateProfile(ctx, p.UserID, providers.ProfileUpdate{
		OrganizationName: "  Coast   Care Trust ",
		Website:          "https://coastcare.org",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := store.GetByUserID(ctx, p.UserID)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if got.OrganizationName != "Coast Care Trust" {
		t.Errorf("OrganizationName = %q, want %q", got.OrganizationName, "Coast Care Trust")
	}
	if got.NameCI != "coast care trust" {
		t.Errorf("NameCI = %q", got.NameCI)
	}

	err = store.UpdateProfile(ctx, primitive.NewObjectID(), providers.ProfileUpdate{OrganizationName: "Nobody"})
	if !errors.Is(err, providers.ErrNotFound) {
		t.Errorf("unknown owner: got %v, want ErrNotFound", err)
	}
}

func TestStore_IncrementTotalVolunteers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := providers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProvider(ctx, "River Keepers")
	for i := 0; i < 3; i++ {
		if err := store.IncrementTotalVolunteers(ctx, p.ID, 1); err != nil {
			t.Fatalf("IncrementTotalVolunteers failed: %v", err)
		}
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.TotalVolunteers != 3 {
		t.Errorf("TotalVolunteers = %d, want 3", got.TotalVolunteers)
	}

	if err := store.IncrementTotalVolunteers(ctx, primitive.NewObjectID(), 1); !errors.Is(err, providers.ErrNotFound) {
		t.Errorf("unknown provider: got %v, want ErrNotFound", err)
	}
}

func TestStore_GetByIDsAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := providers.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateProvider(ctx, "Coast Care")
	b := fx.CreateProvider(ctx, "River Keepers")

	got, err := store.GetByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 || got[b.ID].OrganizationName != "River Keepers" {
		t.Errorf("GetByIDs = %+v", got)
	}

	if n, err := store.Delete(ctx, a.ID); err != nil || n != 1 {
		t.Errorf("Delete = %d, %v; want 1, nil", n, err)
	}
	if _, err := store.GetByID(ctx, a.ID); !errors.Is(err, providers.ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}
