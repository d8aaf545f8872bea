// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage"
)

// Suite is embedded by each backend's test suite, which sets Storage and Ctx
// in its SetupTest
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func (s *Suite) player(id, nick string) *model.Player {
	return &model.Player{
		ID:          model.PlayerID(id),
		DisplayName: "Display " + nick,
		Nickname:    nick,
		Rank:        model.RankGold,
		Roles:       []model.Role{model.RoleDuelist},
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

func (s *Suite) declaration(id string, date model.Date, at time.Time, windows ...model.TimeWindow) *model.DailyDeclaration {
	if windows == nil {
		windows = []model.TimeWindow{}
	}
	return &model.DailyDeclaration{
		PlayerID:    model.PlayerID(id),
		Date:        date,
		IsAvailable: len(windows) > 0,
		Windows:     windows,
		UpdatedAt:   at,
	}
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	p := s.player("p1", "Alice")
	p.Handle = "alice_tg"
	p.Roles = []model.Role{model.RoleSentinel, model.RoleDuelist}

	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, p))

	got, err := s.Storage.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal("Alice", got.Nickname)
	s.Equal("alice_tg", got.Handle)
	s.Equal(model.RankGold, got.Rank)
	s.Equal([]model.Role{model.RoleSentinel, model.RoleDuelist}, got.Roles)
	s.True(p.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestSavePlayerReplacesWholeRow() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.player("p1", "Alice")))

	updated := s.player("p1", "Alicia")
	updated.Rank = model.RankRadiant
	updated.Roles = []model.Role{model.RoleController}
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, updated))

	got, err := s.Storage.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Alicia", got.Nickname)
	s.Equal(model.RankRadiant, got.Rank)
	s.Equal([]model.Role{model.RoleController}, got.Roles)
}

func (s *Suite) TestDeletePlayer() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.player("p1", "Alice")))
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("p1", "2024-05-01", baseTime, model.WindowDay)))

	s.Require().NoError(s.Storage.DeletePlayer(s.Ctx, "p1"))

	_, err := s.Storage.GetPlayer(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	entries, err := s.Storage.ListDeclarations(s.Ctx, "2024-05-01", nil)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *Suite) TestDeleteMissingPlayerIsNoop() {
	s.NoError(s.Storage.DeletePlayer(s.Ctx, "nobody"))
}

func (s *Suite) TestListPlayers() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.player("p2", "Bob")))
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.player("p1", "Alice")))

	players, err := s.Storage.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal(model.PlayerID("p1"), players[0].ID)
	s.Equal(model.PlayerID("p2"), players[1].ID)
}

func (s *Suite) TestListPlayersEmpty() {
	players, err := s.Storage.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Empty(players)
}

// Declaration tests

func (s *Suite) TestSaveAndGetDeclaration() {
	decl := s.declaration("p1", "2024-05-01", baseTime, model.WindowEvening, model.WindowNight)
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, decl))

	got, err := s.Storage.GetDeclaration(s.Ctx, "p1", "2024-05-01")
	s.Require().NoError(err)
	s.True(got.IsAvailable)
	s.Equal([]model.TimeWindow{model.WindowEvening, model.WindowNight}, got.Windows)
}

func (s *Suite) TestGetDeclarationNotFound() {
	_, err := s.Storage.GetDeclaration(s.Ctx, "p1", "2024-05-01")
	s.ErrorIs(err, model.ErrDeclarationNotFound)
}

func (s *Suite) TestDeclarationsAreKeyedByDate() {
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("p1", "2024-05-01", baseTime, model.WindowDay)))
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("p1", "2024-05-02", baseTime, model.WindowNight)))

	first, err := s.Storage.GetDeclaration(s.Ctx, "p1", "2024-05-01")
	s.Require().NoError(err)
	s.Equal([]model.TimeWindow{model.WindowDay}, first.Windows)

	second, err := s.Storage.GetDeclaration(s.Ctx, "p1", "2024-05-02")
	s.Require().NoError(err)
	s.Equal([]model.TimeWindow{model.WindowNight}, second.Windows)
}

func (s *Suite) TestSaveDeclarationReplacesWholeRow() {
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("p1", "2024-05-01", baseTime, model.WindowDay, model.WindowEvening)))
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("p1", "2024-05-01", baseTime.Add(time.Minute))))

	got, err := s.Storage.GetDeclaration(s.Ctx, "p1", "2024-05-01")
	s.Require().NoError(err)
	s.False(got.IsAvailable)
	s.Empty(got.Windows)
}

func (s *Suite) TestListDeclarationsJoinsPlayersAndFilters() {
	date := model.Date("2024-05-01")
	for _, id := range []string{"a", "b", "c", "ghost"} {
		if id != "ghost" {
			s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.player(id, "Nick-"+id)))
		}
	}
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("b", date, baseTime.Add(2*time.Minute), model.WindowEvening)))
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("a", date, baseTime.Add(time.Minute), model.WindowEvening)))
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("c", date, baseTime)))
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("ghost", date, baseTime, model.WindowDay)))
	s.Require().NoError(s.Storage.SaveDeclaration(s.Ctx, s.declaration("a", "2024-05-02", baseTime, model.WindowDay)))

	all, err := s.Storage.ListDeclarations(s.Ctx, date, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(model.PlayerID("c"), all[0].Player.ID)
	s.Equal(model.PlayerID("a"), all[1].Player.ID)
	s.Equal(model.PlayerID("b"), all[2].Player.ID)
	s.Equal("Nick-a", all[1].Player.Nickname)

	available, err := s.Storage.ListDeclarations(s.Ctx, date, storage.OnlyAvailable)
	s.Require().NoError(err)
	s.Require().Len(available, 2)
	s.Equal(model.PlayerID("a"), available[0].Declaration.PlayerID)
	s.Equal(model.PlayerID("b"), available[1].Declaration.PlayerID)
}

func (s *Suite) TestListDeclarationsEmptyDate() {
	entries, err := s.Storage.ListDeclarations(s.Ctx, "1999-01-01", nil)
	s.Require().NoError(err)
	s.Empty(entries)
}
