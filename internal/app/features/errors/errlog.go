// internal/app/features/errors/errlog.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs structured logging with user-facing error pages so
// handlers report failures in one call: the operator gets the real error
// in the log, the user gets a friendly Norwegian message.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs an internal failure and renders a 500-class page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))

	w.WriteHeader(http.StatusInternalServerError)
	renderMessage(w, r, "Noe gikk galt", userMsg, backURL)
}

// LogBadRequest logs a client error and renders a 400-class page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))

	w.WriteHeader(http.StatusBadRequest)
	renderMessage(w, r, "Ugyldig forespørsel", userMsg, backURL)
}

// LogNotFound logs a missing-resource access and renders the 404 page.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, logMsg, userMsg, backURL string) {
	e.log.Info(logMsg,
		zap.String("path", r.URL.Path))

	w.WriteHeader(http.StatusNotFound)
	renderMessage(w, r, "Ikke funnet", userMsg, backURL)
}
