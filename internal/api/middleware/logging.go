package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/teamfinder/internal/middleware"
)

// Logging creates access logging middleware for the API and webhook routes
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "api")), redactWebhookPath)
}

// redactWebhookPath hides the webhook segment, which is derived from the bot token
func redactWebhookPath(path string) string {
	if strings.HasPrefix(path, "/webhook/") {
		return "/webhook/{secret}"
	}
	return path
}
