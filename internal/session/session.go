// Package session keeps the short-lived per-user conversation data.
package session

import (
	"context"
	"slices"
	"time"

	"github.com/mcoot/teamfinder/internal/model"
)

// DefaultTTL is how long an untouched session survives
const DefaultTTL = 24 * time.Hour

// State is the conversation step a user is in. The zero value is idle.
type State string

// Session is the draft data of one user's conversation
type Session struct {
	State State `json:"state"`
	// Editing is the profile field under edit, empty during registration
	Editing  model.ProfileField `json:"editing,omitempty"`
	Nickname string             `json:"nickname,omitempty"`
	Rank     model.Rank         `json:"rank,omitempty"`
	Roles    []model.Role       `json:"roles,omitempty"`

	// Availability draft for today
	Windows       []model.TimeWindow `json:"windows,omitempty"`
	WindowsLoaded bool               `json:"windows_loaded,omitempty"`
	// WindowsDate is the day the draft was seeded for
	WindowsDate model.Date `json:"windows_date,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	cp := *s
	cp.Roles = slices.Clone(s.Roles)
	cp.Windows = slices.Clone(s.Windows)
	return &cp
}

// Store persists sessions keyed by user. An absent or expired entry reads as
// a fresh idle Session, never as an error.
type Store interface {
	Get(ctx context.Context, id model.PlayerID) (*Session, error)
	Save(ctx context.Context, id model.PlayerID, s *Session) error
	Delete(ctx context.Context, id model.PlayerID) error
}
