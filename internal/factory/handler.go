package factory

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/teamfinder/internal/api"
	"github.com/mcoot/teamfinder/internal/web"
)

// Handler assembles the whole HTTP surface: the JSON API, the Telegram
// webhook when one is given, and the web pages
func (a *App) Handler(logger *slog.Logger, webhook http.Handler, webhookPath string) http.Handler {
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:       logger,
		Availability: a.Availability,
	})

	return api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Clock:        a.Clock,
		Profiles:     a.Profiles,
		Availability: a.Availability,
		Auth:         a.Auth,
		Scheduler:    a.Scheduler,
		Webhook:      webhook,
		WebhookPath:  webhookPath,
		Web:          webRouter,
	})
}
