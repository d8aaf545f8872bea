package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/teamfinder/internal/middleware"
)

// Logging creates access logging middleware for the web pages
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "web")), nil)
}
