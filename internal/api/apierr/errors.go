package apierr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/signmaze/internal/model"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidScore         = "INVALID_SCORE"
	CodeInvalidLevel         = "INVALID_LEVEL"
	CodeInvalidStats         = "INVALID_STATS"
	CodeDeviceNotFound       = "DEVICE_NOT_FOUND"
	CodeEndpointNotFound     = "NOT_FOUND"
	CodeVerificationRequired = "VERIFICATION_REQUIRED"
	CodeVerificationFailed   = "VERIFICATION_FAILED"
	CodeDuplicateSubmission  = "DUPLICATE_SUBMISSION"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with a response code and text
type httpError struct {
	status int
	code   string
	text   string
	cause  error
}

// Error implements error interface
func (e *httpError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.text
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// Code returns the response code an error maps to
func Code(err error) string {
	return toHTTPError(err).code
}

// Writer renders errors as JSON responses.
// In development the underlying error text is included as the message.
type Writer struct {
	Logger      *slog.Logger
	Development bool
}

// NewWriter creates a new error Writer
func NewWriter(logger *slog.Logger, development bool) *Writer {
	return &Writer{Logger: logger, Development: development}
}

// Write writes an error response, logging anything that maps to a 500
func (ew *Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	he := toHTTPError(err)

	if he.status >= http.StatusInternalServerError && ew.Logger != nil {
		ew.Logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	body := ErrorResponse{Error: he.text, Code: he.code}
	if ew.Development {
		body.Message = err.Error()
	}
	writeJSON(w, he.status, body)
}

// NotFound writes the response for an unknown API path
func (ew *Writer) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error: "API endpoint not found",
		Code:  CodeEndpointNotFound,
	})
}

// Text returns the public error text for err
func Text(err error) string {
	return toHTTPError(err).text
}

func writeJSON(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrIdentityNotFound):
		return &httpError{http.StatusNotFound, CodeDeviceNotFound, "User not found. Please register first.", err}
	case errors.Is(err, model.ErrDeviceIDRequired):
		return &httpError{http.StatusBadRequest, CodeInvalidRequest, "Device ID is required", err}
	case errors.Is(err, model.ErrInvalidScore):
		return &httpError{http.StatusBadRequest, CodeInvalidScore, "Invalid score value", err}
	case errors.Is(err, model.ErrInvalidLevel):
		return &httpError{http.StatusBadRequest, CodeInvalidLevel, "Invalid level value", err}
	case errors.Is(err, model.ErrInvalidStats):
		return &httpError{http.StatusBadRequest, CodeInvalidStats, "Invalid game statistics", err}
	case errors.Is(err, model.ErrDuplicateSubmission):
		return &httpError{http.StatusTooManyRequests, CodeDuplicateSubmission,
			"Duplicate submission detected. Please wait before submitting again.", err}
	case errors.Is(err, model.ErrVerificationRequired):
		return &httpError{http.StatusForbidden, CodeVerificationRequired,
			"High scores require user verification. Please verify your account first.", err}
	case errors.Is(err, model.ErrVerificationFailed):
		return &httpError{http.StatusForbidden, CodeVerificationFailed, "Unable to verify user identity", err}
	default:
		return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error", err}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{status: http.StatusBadRequest, code: CodeInvalidRequest, text: message}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{status: http.StatusInternalServerError, code: CodeInternalError, text: "Internal server error"}
}
