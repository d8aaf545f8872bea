package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamfinder/internal/api/apierr"
	"github.com/mcoot/teamfinder/internal/api/handler"
	"github.com/mcoot/teamfinder/internal/api/middleware"
	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/services/auth"
	"github.com/mcoot/teamfinder/internal/services/availability"
	"github.com/mcoot/teamfinder/internal/services/profile"
	"github.com/mcoot/teamfinder/internal/services/scheduler"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	Clock        clock.Clock
	Profiles     *profile.Service
	Availability *availability.Service
	Auth         *auth.Service
	// Scheduler is optional; without it broadcasts answer 503
	Scheduler *scheduler.Service

	// Webhook receives Telegram updates at /webhook/{WebhookPath}.
	// Nil disables the route.
	Webhook     http.Handler
	WebhookPath string

	// Web serves everything outside the API, such as the /today page
	Web http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.Clock)
	playerHandler := handler.NewPlayerHandler(cfg.Profiles, cfg.Availability)
	adminHandler := handler.NewAdminHandler(cfg.Scheduler)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	adminMiddleware := middleware.Admin(cfg.Auth)

	// Liveness probe, kept out of the access log
	r.HandleFunc("/healthz", healthHandler.Live).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Public read-only routes
	public := api.NewRoute().Subrouter()
	public.Use(middleware.CORS())
	public.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/players/today", playerHandler.Today).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/stats", playerHandler.Stats).Methods(http.MethodGet, http.MethodOptions)

	// Admin routes
	admin := api.NewRoute().Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/players/{id}", playerHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/broadcast", adminHandler.Broadcast).Methods(http.MethodPost)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	if cfg.Webhook != nil {
		hook := r.PathPrefix("/webhook").Subrouter()
		hook.Use(loggingMiddleware)
		hook.Use(recoveryMiddleware)
		hook.Handle("/"+cfg.WebhookPath, cfg.Webhook).Methods(http.MethodPost)
	}

	if cfg.Web != nil {
		r.PathPrefix("/").Handler(cfg.Web)
	}

	return r
}
