// internal/app/features/opportunities/list.go
package opportunities

import (
	"net/http"
	"strconv"
	"strings"

	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/normalize"
	"github.com/dalemusser/greenreach/internal/app/system/paging"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// parseFilter reads ?provider=&type=&category=&paid=&q=&limit= into a store filter.
func parseFilter(r *http.Request) (opportunitystore.Filter, error) {
	q := r.URL.Query()
	f := opportunitystore.Filter{
		Type:     normalize.QueryParam(q.Get("type")),
		Category: strings.ToLower(normalize.QueryParam(q.Get("category"))),
		Title:    normalize.QueryParam(q.Get("q")),
		Limit:    defaultLimit,
	}
	if raw := normalize.QueryParam(q.Get("provider")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return f, apierr.Validation("provider must be a valid ID")
		}
		f.ProviderID = &id
	}
	if raw := normalize.QueryParam(q.Get("paid")); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			return f, apierr.Validation("paid must be true or false")
		}
		f.IsPaid = &paid
	}
	if raw := normalize.QueryParam(q.Get("limit")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return f, apierr.Validation("limit must be a positive number")
		}
		f.Limit = min(n, maxLimit)
	}
	return f, nil
}

// List handles GET /api/opportunities.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list opportunities")
	defer cancel()

	list, err := h.Svc.List(ctx, f)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Browse handles GET /api/opportunities/browse: title-ordered keyset pages
// driven by ?after=, ?before= and ?size=, with the same filters as List.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "browse opportunities")
	defer cancel()

	page, err := h.Svc.Browse(ctx, f, paging.ParseParams(r))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}
