package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamfinder/internal/services/availability"
	"github.com/mcoot/teamfinder/internal/web/handler"
	"github.com/mcoot/teamfinder/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger       *slog.Logger
	Availability *availability.Service
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware to all routes
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))

	todayHandler := handler.NewTodayHandler(cfg.Availability, cfg.Logger)

	r.HandleFunc("/today", todayHandler.Today).Methods(http.MethodGet)
	r.Handle("/", http.RedirectHandler("/today", http.StatusFound)).Methods(http.MethodGet)

	return r
}
