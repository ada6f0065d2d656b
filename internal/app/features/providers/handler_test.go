package providers_test

import (
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	"github.com/dalemusser/greenreach/internal/app/features/providers"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/greenreach/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestProfile_CreateThenUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := providers.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	router := chi.NewRouter()
	router.Mount("/api/providers", providers.Routes(h))
	caller := testutil.AnonymousIdentity(identity.RoleProvider)

	do := func(req *http.Request) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.WithIdentity(req, caller))
		return rec
	}

	do(testutil.NewRequest("GET", "/api/providers/me")).AssertStatus(t, http.StatusNotFound)

	rec := do(testutil.NewJSONRequest(t, "PUT", "/api/providers/me", map[string]string{"organization_name": "Coast Care", "website": "https://coast.example"}))
	rec.AssertStatus(t, http.StatusOK)
	var p models.Provider
	rec.DecodeJSON(t, &p)
	assert.Equal(t, "Coast Care", p.OrganizationName)

	rec = do(testutil.NewJSONRequest(t, "PUT", "/api/providers/me", map[string]string{"organization_name": "Coast Care Trust"}))
	rec.AssertStatus(t, http.StatusOK)
	var again models.Provider
	rec.DecodeJSON(t, &again)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "Coast Care Trust", again.OrganizationName)
	assert.Equal(t, "", again.Website)

	do(testutil.NewJSONRequest(t, "PUT", "/api/providers/me", map[string]string{"organization_name": "X", "website": "javascript:alert(1)"})).
		AssertStatus(t, http.StatusBadRequest)
}
