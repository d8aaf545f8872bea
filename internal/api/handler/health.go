package handler

import (
	"net/http"

	"github.com/mcoot/teamfinder/internal/api/response"
	"github.com/mcoot/teamfinder/internal/dependencies/clock"
)

// HealthHandler reports liveness
type HealthHandler struct {
	clock clock.Clock
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(clock clock.Clock) *HealthHandler {
	return &HealthHandler{clock: clock}
}

// Live handles GET /healthz for process supervisors
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, "ok")
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status: "ok",
		Time:   h.clock.Now().UTC(),
	})
}
