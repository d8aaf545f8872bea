package storage

import (
	"context"
	"sort"

	"github.com/mcoot/teamfinder/internal/model"
)

// DeclarationPredicate filters declarations in range queries.
// A nil predicate accepts everything.
type DeclarationPredicate func(d *model.DailyDeclaration) bool

// OnlyAvailable accepts declarations that are available with at least one window
func OnlyAvailable(d *model.DailyDeclaration) bool {
	return d.IsAvailable && len(d.Windows) > 0
}

// Storage defines the interface for data persistence.
// Every Save is atomic: the row is either fully written or not at all.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	ListPlayers(ctx context.Context) ([]*model.Player, error)

	// Declaration operations
	SaveDeclaration(ctx context.Context, decl *model.DailyDeclaration) error
	GetDeclaration(ctx context.Context, playerID model.PlayerID, date model.Date) (*model.DailyDeclaration, error)
	// ListDeclarations returns declarations for date that pass pred, joined
	// with their owner's profile. Declarations whose player no longer exists
	// are skipped. Results are ordered by UpdatedAt, then PlayerID.
	ListDeclarations(ctx context.Context, date model.Date, pred DeclarationPredicate) ([]model.PlayerDeclaration, error)
}

// SortPlayerDeclarations applies the canonical range-query order
func SortPlayerDeclarations(entries []model.PlayerDeclaration) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Declaration, entries[j].Declaration
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return a.PlayerID < b.PlayerID
	})
}

// SortPlayers orders players by ID
func SortPlayers(players []*model.Player) {
	sort.Slice(players, func(i, j int) bool {
		return players[i].ID < players[j].ID
	})
}
