package response

import (
	"time"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/scheduler"
)

// Health is the body of GET /api/v1/health
type Health struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// Player represents a player in API responses
type Player struct {
	ID       string   `json:"id"`
	Nickname string   `json:"nickname"`
	Rank     string   `json:"rank"`
	Roles    []string `json:"roles"`
	Handle   string   `json:"handle,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	return Player{
		ID:       string(p.ID),
		Nickname: p.Nickname,
		Rank:     string(p.Rank),
		Roles:    roles,
		Handle:   p.Handle,
	}
}

// AvailablePlayer is a player together with the windows they declared
type AvailablePlayer struct {
	Player
	Windows   []string  `json:"windows"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailablePlayerFromModel converts a joined declaration
func AvailablePlayerFromModel(e model.PlayerDeclaration) AvailablePlayer {
	windows := make([]string, len(e.Declaration.Windows))
	for i, w := range e.Declaration.Windows {
		windows[i] = string(w)
	}
	return AvailablePlayer{
		Player:    PlayerFromModel(&e.Player),
		Windows:   windows,
		UpdatedAt: e.Declaration.UpdatedAt,
	}
}

// Today is the body of GET /api/v1/players/today
type Today struct {
	Date    string            `json:"date"`
	Count   int               `json:"count"`
	Players []AvailablePlayer `json:"players"`
}

// TodayFromModel builds the Today response for date
func TodayFromModel(date model.Date, entries []model.PlayerDeclaration) Today {
	players := make([]AvailablePlayer, len(entries))
	for i, e := range entries {
		players[i] = AvailablePlayerFromModel(e)
	}
	return Today{
		Date:    string(date),
		Count:   len(players),
		Players: players,
	}
}

// Stats is the body of GET /api/v1/stats
type Stats struct {
	TotalPlayers int    `json:"total_players"`
	PlayingToday int    `json:"playing_today"`
	Date         string `json:"date"`
}

// Broadcast summarises one reminder run
type Broadcast struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Attempted int       `json:"attempted"`
	Delivered int       `json:"delivered"`
	Failed    []string  `json:"failed"`
}

// BroadcastFromReport converts a scheduler report
func BroadcastFromReport(r *scheduler.Report) Broadcast {
	failed := make([]string, len(r.Failed))
	for i, id := range r.Failed {
		failed[i] = string(id)
	}
	return Broadcast{
		RunID:     r.RunID,
		StartedAt: r.StartedAt,
		Attempted: r.Attempted,
		Delivered: r.Delivered,
		Failed:    failed,
	}
}
