package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamfinder/internal/api/response"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/availability"
	"github.com/mcoot/teamfinder/internal/services/profile"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	profiles     *profile.Service
	availability *availability.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(profiles *profile.Service, availability *availability.Service) *PlayerHandler {
	return &PlayerHandler{
		profiles:     profiles,
		availability: availability,
	}
}

// Today handles GET /api/v1/players/today.
// An optional ?date=YYYY-MM-DD looks at another day.
func (h *PlayerHandler) Today(w http.ResponseWriter, r *http.Request) {
	date := h.availability.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			WriteError(w, NewInvalidRequestError("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	entries, err := h.availability.Available(r.Context(), date)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TodayFromModel(date, entries))
}

// Stats handles GET /api/v1/stats
func (h *PlayerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	players, err := h.profiles.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	date := h.availability.Today()
	playing, err := h.availability.Available(r.Context(), date)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Stats{
		TotalPlayers: len(players),
		PlayingToday: len(playing),
		Date:         string(date),
	})
}

// Delete handles DELETE /api/v1/players/{id}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	if err := h.profiles.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
