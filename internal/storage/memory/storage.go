package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied in and out so callers never share mutable state.
type Storage struct {
	mu sync.RWMutex

	players      map[model.PlayerID]*model.Player
	declarations map[declarationKey]*model.DailyDeclaration
}

type declarationKey struct {
	playerID model.PlayerID
	date     model.Date
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:      make(map[model.PlayerID]*model.Player),
		declarations: make(map[declarationKey]*model.DailyDeclaration),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func copyPlayer(p *model.Player) *model.Player {
	cp := *p
	cp.Roles = slices.Clone(p.Roles)
	return &cp
}

func copyDeclaration(d *model.DailyDeclaration) *model.DailyDeclaration {
	cp := *d
	cp.Windows = slices.Clone(d.Windows)
	return &cp
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = copyPlayer(player)
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return copyPlayer(player), nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	for key := range s.declarations {
		if key.playerID == id {
			delete(s.declarations, key)
		}
	}
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, copyPlayer(p))
	}
	storage.SortPlayers(players)
	return players, nil
}

// Declaration operations

func (s *Storage) SaveDeclaration(ctx context.Context, decl *model.DailyDeclaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declarations[declarationKey{decl.PlayerID, decl.Date}] = copyDeclaration(decl)
	return nil
}

func (s *Storage) GetDeclaration(ctx context.Context, playerID model.PlayerID, date model.Date) (*model.DailyDeclaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decl, ok := s.declarations[declarationKey{playerID, date}]
	if !ok {
		return nil, model.ErrDeclarationNotFound
	}
	return copyDeclaration(decl), nil
}

func (s *Storage) ListDeclarations(ctx context.Context, date model.Date, pred storage.DeclarationPredicate) ([]model.PlayerDeclaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []model.PlayerDeclaration{}
	for key, decl := range s.declarations {
		if key.date != date {
			continue
		}
		if pred != nil && !pred(decl) {
			continue
		}
		player, ok := s.players[key.playerID]
		if !ok {
			continue
		}
		entries = append(entries, model.PlayerDeclaration{
			Player:      *copyPlayer(player),
			Declaration: *copyDeclaration(decl),
		})
	}
	storage.SortPlayerDeclarations(entries)
	return entries, nil
}
