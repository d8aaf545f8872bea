package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/availability"
	"github.com/mcoot/teamfinder/internal/web/templates"
)

const displayDateLayout = "02.01.2006"

// TodayHandler renders the list of players available today
type TodayHandler struct {
	availability *availability.Service
	logger       *slog.Logger
}

// NewTodayHandler creates a new TodayHandler
func NewTodayHandler(availability *availability.Service, logger *slog.Logger) *TodayHandler {
	return &TodayHandler{
		availability: availability,
		logger:       logger.With(slog.String("component", "web_today")),
	}
}

// Today renders the today page
func (h *TodayHandler) Today(w http.ResponseWriter, r *http.Request) {
	date := h.availability.Today()

	entries, err := h.availability.Available(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to list available players", slog.String("error", err.Error()))
		status := http.StatusInternalServerError
		if model.IsStore(err) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "The list is unavailable right now, try again later", status)
		return
	}

	data := templates.TodayData{
		Date:        date,
		DisplayDate: date.Time().Format(displayDateLayout),
		Players:     make([]templates.TodayPlayer, len(entries)),
	}
	for i, e := range entries {
		roles := make([]string, len(e.Player.Roles))
		for j, role := range e.Player.Roles {
			roles[j] = string(role)
		}
		data.Players[i] = templates.TodayPlayer{
			ID:       e.Player.ID,
			Nickname: e.Player.Nickname,
			Rank:     e.Player.Rank,
			Roles:    roles,
			Windows:  e.Declaration.Windows,
		}
	}

	// Render into a buffer so a template error can still become a 500
	var buf bytes.Buffer
	if err := templates.Today(&buf, data); err != nil {
		h.logger.Error("failed to render today page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
