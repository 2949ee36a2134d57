package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/signmaze/internal/api/apierr"
	"github.com/mcoot/signmaze/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Panics become JSON 500 responses.
func Recovery(logger *slog.Logger, errs *apierr.Writer) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		errs.Write(w, r, apierr.NewInternalError())
	})
}
