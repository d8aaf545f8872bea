package handler

import (
	"net/http"

	"github.com/mcoot/teamfinder/internal/api/apierr"
	"github.com/mcoot/teamfinder/internal/api/response"
	"github.com/mcoot/teamfinder/internal/services/scheduler"
)

// AdminHandler handles operator actions
type AdminHandler struct {
	scheduler *scheduler.Service
}

// NewAdminHandler creates a new admin handler. A nil scheduler disables
// broadcasts.
func NewAdminHandler(scheduler *scheduler.Service) *AdminHandler {
	return &AdminHandler{scheduler: scheduler}
}

// Broadcast handles POST /api/v1/broadcast
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		WriteError(w, apierr.NewUnavailableError("No delivery transport is configured"))
		return
	}

	report, err := h.scheduler.Broadcast(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BroadcastFromReport(report))
}
