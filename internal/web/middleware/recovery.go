package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/teamfinder/internal/middleware"
)

const errorPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Something went wrong</title></head>
<body>
<h1>Something went wrong</h1>
<p>The player list could not be shown. Try again in a minute.</p>
<p><a href="/today">Reload</a></p>
</body>
</html>`

// Recovery answers a panicking page handler with a static HTML page
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "web")), func(w http.ResponseWriter, _ *http.Request, _ any) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(errorPage))
	})
}
