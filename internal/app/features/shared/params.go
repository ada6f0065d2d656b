// Package shared holds request helpers used by several features.
package shared

import (
	"net/http"
	"strings"

	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectIDParam reads the chi URL parameter name as an ObjectID.
// A malformed value is a Validation error naming the parameter.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("%s must be a valid ID", name)
	}
	return id, nil
}

// BoolQuery reports whether the query parameter name is "true" or "1".
func BoolQuery(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "true", "1", "yes":
		return true
	}
	return false
}
