// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/respond"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger renders workflow errors as {"message": ...} bodies and logs
// the ones that are the server's fault.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Write maps err to its HTTP status. Internal errors are logged with the
// request context and answered with a generic message.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	status := apierr.Status(err)
	if status >= http.StatusInternalServerError {
		e.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	} else {
		e.log.Debug("request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.String("message", apierr.PublicMessage(err)))
	}
	respond.Message(w, status, apierr.PublicMessage(err))
}

// BadRequest answers 400 for bodies or parameters that could not be parsed.
func (e *ErrorLogger) BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respond.Message(w, http.StatusBadRequest, msg)
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusNotFound, "Not found.")
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
