package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// PlayerID uniquely identifies a player across the system.
// It is the opaque user identifier supplied by the chat transport.
type PlayerID string

// Nickname length bounds, counted in characters
const (
	NicknameMinLength = 2
	NicknameMaxLength = 30
)

// Rank is a tier on the competitive ladder
type Rank string

const (
	RankIron     Rank = "Iron"
	RankBronze   Rank = "Bronze"
	RankSilver   Rank = "Silver"
	RankGold     Rank = "Gold"
	RankPlatinum Rank = "Platinum"
	RankDiamond  Rank = "Diamond"
	RankImmortal Rank = "Immortal"
	RankRadiant  Rank = "Radiant"
)

// Ranks lists the ladder from lowest to highest tier
var Ranks = []Rank{
	RankIron, RankBronze, RankSilver, RankGold,
	RankPlatinum, RankDiamond, RankImmortal, RankRadiant,
}

// Valid reports whether r is one of the ladder tiers
func (r Rank) Valid() bool {
	for _, known := range Ranks {
		if r == known {
			return true
		}
	}
	return false
}

// Role is an in-game role a player is willing to fill
type Role string

const (
	RoleDuelist    Role = "duelist"
	RoleSentinel   Role = "sentinel"
	RoleInitiator  Role = "initiator"
	RoleController Role = "controller"
)

// Roles lists every role in display order
var Roles = []Role{RoleDuelist, RoleSentinel, RoleInitiator, RoleController}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Player is a registered user's profile
type Player struct {
	ID          PlayerID  `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	Nickname    string    `json:"nickname"`
	Rank        Rank      `json:"rank"`
	Roles       []Role    `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileField names a single editable part of a profile
type ProfileField string

const (
	FieldNickname ProfileField = "nickname"
	FieldRank     ProfileField = "rank"
	FieldRoles    ProfileField = "roles"
)

// Valid reports whether f is an editable field
func (f ProfileField) Valid() bool {
	return f == FieldNickname || f == FieldRank || f == FieldRoles
}

// NormalizeNickname trims surrounding whitespace from user input
func NormalizeNickname(raw string) string {
	return strings.TrimSpace(raw)
}

// ValidateNickname checks the nickname length bounds
func ValidateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < NicknameMinLength || n > NicknameMaxLength {
		return &ValidationError{Field: string(FieldNickname), Reason: "must be 2 to 30 characters"}
	}
	return nil
}

// ValidateRoles checks that roles is a non-empty set of known roles
func ValidateRoles(roles []Role) error {
	if len(roles) == 0 {
		return &ValidationError{Field: string(FieldRoles), Reason: "at least one role is required"}
	}
	seen := make(map[Role]bool, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return &ValidationError{Field: string(FieldRoles), Reason: "unknown role " + string(r)}
		}
		if seen[r] {
			return &ValidationError{Field: string(FieldRoles), Reason: "duplicate role " + string(r)}
		}
		seen[r] = true
	}
	return nil
}

// Validate checks every required profile field
func (p *Player) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if err := ValidateNickname(p.Nickname); err != nil {
		return err
	}
	if !p.Rank.Valid() {
		return &ValidationError{Field: string(FieldRank), Reason: "unknown rank"}
	}
	return ValidateRoles(p.Roles)
}

// ToggleRole flips membership of r in roles, keeping insertion order.
// The input slice is not modified.
func ToggleRole(roles []Role, r Role) []Role {
	out := make([]Role, 0, len(roles)+1)
	found := false
	for _, have := range roles {
		if have == r {
			found = true
			continue
		}
		out = append(out, have)
	}
	if !found {
		out = append(out, r)
	}
	return out
}
