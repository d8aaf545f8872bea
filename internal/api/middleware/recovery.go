package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/teamfinder/internal/api/apierr"
	"github.com/mcoot/teamfinder/internal/middleware"
)

// Recovery answers a panicking API handler with a JSON internal error
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "api")), func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
