// internal/app/features/auditlog/handler.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/greenreach/internal/app/features/errors"
	"github.com/dalemusser/greenreach/internal/app/store/audit"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const pageSize = 50

type Handler struct {
	Store  *audit.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Store: audit.New(db), Log: logger, ErrLog: errLog}
}

type listResponse struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Pages  int           `json:"pages"`
}

// parseFilter reads category, event_type, application, actor, start_date,
// end_date (YYYY-MM-DD) and page from the query string.
func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	q := r.URL.Query()
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	for name, dst := range map[string]**primitive.ObjectID{
		"application": &f.ApplicationID,
		"opportunity": &f.OpportunityID,
		"actor":       &f.ActorID,
	} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return f, page, apierr.Validation("%s must be a valid ID", name)
		}
		*dst = &id
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, page, apierr.Validation("start_date must be YYYY-MM-DD")
		}
		f.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, page, apierr.Validation("end_date must be YYYY-MM-DD")
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &endOfDay
	}
	return f, page, nil
}

// ServeList handles GET /api/admin/audit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f, page, err := parseFilter(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Store.Query(ctx, f)
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("query audit events", err))
		return
	}
	total, err := h.Store.CountByFilter(ctx, f)
	if err != nil {
		h.ErrLog.Write(w, r, apierr.Internal("count audit events", err))
		return
	}
	pages := int((total + pageSize - 1) / pageSize)
	if pages < 1 {
		pages = 1
	}
	respond.JSON(w, http.StatusOK, listResponse{Events: events, Total: total, Page: page, Pages: pages})
}
