package postgres

import (
	"time"

	"github.com/mcoot/teamfinder/internal/model"
)

type playerRow struct {
	ID          string    `gorm:"primaryKey;size:64"`
	DisplayName string    `gorm:"size:255"`
	Handle      string    `gorm:"size:255"`
	Nickname    string    `gorm:"size:64;not null"`
	Rank        string    `gorm:"size:20;not null"`
	Roles       []string  `gorm:"serializer:json;type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (playerRow) TableName() string { return "players" }

type declarationRow struct {
	PlayerID    string    `gorm:"primaryKey;size:64"`
	Date        string    `gorm:"primaryKey;size:10;index:idx_declarations_date"`
	IsAvailable bool      `gorm:"not null"`
	Windows     []string  `gorm:"serializer:json;type:text;not null"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (declarationRow) TableName() string { return "daily_declarations" }

func playerToRow(p *model.Player) *playerRow {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	return &playerRow{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Handle:      p.Handle,
		Nickname:    p.Nickname,
		Rank:        string(p.Rank),
		Roles:       roles,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *playerRow) toModel() *model.Player {
	roles := make([]model.Role, len(r.Roles))
	for i, role := range r.Roles {
		roles[i] = model.Role(role)
	}
	return &model.Player{
		ID:          model.PlayerID(r.ID),
		DisplayName: r.DisplayName,
		Handle:      r.Handle,
		Nickname:    r.Nickname,
		Rank:        model.Rank(r.Rank),
		Roles:       roles,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func declarationToRow(d *model.DailyDeclaration) *declarationRow {
	windows := make([]string, len(d.Windows))
	for i, w := range d.Windows {
		windows[i] = string(w)
	}
	return &declarationRow{
		PlayerID:    string(d.PlayerID),
		Date:        string(d.Date),
		IsAvailable: d.IsAvailable,
		Windows:     windows,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *declarationRow) toModel() *model.DailyDeclaration {
	windows := make([]model.TimeWindow, len(r.Windows))
	for i, w := range r.Windows {
		windows[i] = model.TimeWindow(w)
	}
	return &model.DailyDeclaration{
		PlayerID:    model.PlayerID(r.PlayerID),
		Date:        model.Date(r.Date),
		IsAvailable: r.IsAvailable,
		Windows:     windows,
		UpdatedAt:   r.UpdatedAt,
	}
}
