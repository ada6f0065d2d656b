package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/greenreach/internal/app/store/audit"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/greenreach/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, primitive.NewObjectID(), "volunteer")
	logger.Withdrawn(ctx, identity.Identity{}, primitive.NewObjectID(), primitive.NewObjectID())
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode     string
		wantDB   int
		wantLogs int
	}{
		{auditlog.ModeOff, 0, 0},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeAll, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Workflow: tt.mode})
			who := identity.Identity{UserID: primitive.NewObjectID(), Role: identity.RoleProvider}
			logger.StatusChanged(ctx, who, primitive.NewObjectID(), primitive.NewObjectID(),
				models.StatusPending, models.StatusAccepted)

			n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryWorkflow})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if int(n) != tt.wantDB {
				t.Errorf("db events = %d, want %d", n, tt.wantDB)
			}
			if logs.Len() != tt.wantLogs {
				t.Errorf("zap entries = %d, want %d", logs.Len(), tt.wantLogs)
			}
		})
	}
}

func TestLogger_RequestMetaCarriesIP(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB})

	h := auditlog.RequestMeta(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.LoginFailed(r.Context(), "x@example.org", "wrong password")
	}))
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].IP != "203.0.113.7" {
		t.Errorf("IP = %q, want 203.0.113.7", events[0].IP)
	}
	if events[0].Success {
		t.Error("expected failed login to be recorded as unsuccessful")
	}
}
