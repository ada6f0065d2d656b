package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad id"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("sign in"), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("already applied"), http.StatusBadRequest},
		{"invalid state", InvalidState("not accepted"), http.StatusBadRequest},
		{"rate limited", RateLimited("slow down"), http.StatusTooManyRequests},
		{"internal", Internal("load", errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", Conflict("already applied"))
	if KindOf(err) != KindConflict {
		t.Errorf("KindOf(wrapped) = %v, want %v", KindOf(err), KindConflict)
	}
	if !Is(err, KindConflict) {
		t.Error("expected Is(err, KindConflict) to be true")
	}
	if Is(nil, KindInternal) {
		t.Error("expected Is(nil, ...) to be false")
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NotFound("Opportunity not found.")); got != "Opportunity not found." {
		t.Errorf("PublicMessage = %q", got)
	}
	if got := PublicMessage(Internal("decode volunteer", errors.New("secret detail"))); got != GenericMessage {
		t.Errorf("internal errors must not leak detail, got %q", got)
	}
	if got := PublicMessage(errors.New("raw")); got != GenericMessage {
		t.Errorf("unclassified errors must not leak detail, got %q", got)
	}
}

func TestInternal_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("update status", cause)
	if !errors.Is(err, cause) {
		t.Error("expected Internal to wrap its cause")
	}
}
