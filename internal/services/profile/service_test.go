package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamfinder/internal/dependencies/mocks"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage/memory"
	"github.com/mcoot/teamfinder/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *testutil.FaultyStorage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = testutil.NewFaultyStorage(memory.New())
	s.clock = mocks.NewMockClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, 50*time.Millisecond, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) registered(id string) *model.Player {
	p, err := s.service.Upsert(s.ctx, model.Player{
		ID:       model.PlayerID(id),
		Nickname: "Sova" + id,
		Rank:     model.RankGold,
		Roles:    []model.Role{model.RoleInitiator, model.RoleController},
	})
	s.Require().NoError(err)
	return p
}

// Upsert tests

func (s *ServiceSuite) TestUpsertStoresProfile() {
	p := s.registered("1")

	got, err := s.service.Get(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(p.Nickname, got.Nickname)
	s.Equal(model.RankGold, got.Rank)
	s.Equal([]model.Role{model.RoleInitiator, model.RoleController}, got.Roles)
	s.Equal(s.clock.Now(), got.CreatedAt)
	s.Equal(s.clock.Now(), got.UpdatedAt)
}

func (s *ServiceSuite) TestUpsertTrimsNickname() {
	p, err := s.service.Upsert(s.ctx, model.Player{
		ID: "1", Nickname: "  Jett  ", Rank: model.RankIron, Roles: []model.Role{model.RoleDuelist},
	})
	s.Require().NoError(err)
	s.Equal("Jett", p.Nickname)
}

func (s *ServiceSuite) TestUpsertKeepsCreatedAt() {
	first := s.registered("1")
	s.clock.Advance(time.Hour)

	second, err := s.service.Upsert(s.ctx, model.Player{
		ID: "1", Nickname: "Renamed", Rank: model.RankGold, Roles: []model.Role{model.RoleDuelist},
	})
	s.Require().NoError(err)
	s.Equal(first.CreatedAt, second.CreatedAt)
	s.Equal(s.clock.Now(), second.UpdatedAt)
}

func (s *ServiceSuite) TestUpsertRejectsInvalidProfileWithoutWriting() {
	cases := []model.Player{
		{ID: "1", Nickname: "a", Rank: model.RankIron, Roles: []model.Role{model.RoleDuelist}},
		{ID: "1", Nickname: "Phoenix", Rank: "Wood", Roles: []model.Role{model.RoleDuelist}},
		{ID: "1", Nickname: "Phoenix", Rank: model.RankIron},
	}
	for _, p := range cases {
		_, err := s.service.Upsert(s.ctx, p)
		s.True(model.IsValidation(err), "expected validation error for %+v", p)
	}
	s.Equal(0, s.storage.Writes())
}

func (s *ServiceSuite) TestUpsertStoreFailureIsStoreError() {
	s.storage.FailOn(testutil.OpSavePlayer, nil)

	_, err := s.service.Upsert(s.ctx, model.Player{
		ID: "1", Nickname: "Phoenix", Rank: model.RankIron, Roles: []model.Role{model.RoleDuelist},
	})
	s.True(model.IsStore(err))
	s.True(errors.Is(err, testutil.ErrInjected))
}

func (s *ServiceSuite) TestUpsertTimeoutIsStoreError() {
	s.storage.BlockOn(testutil.OpSavePlayer)

	_, err := s.service.Upsert(s.ctx, model.Player{
		ID: "1", Nickname: "Phoenix", Rank: model.RankIron, Roles: []model.Role{model.RoleDuelist},
	})
	s.True(model.IsStore(err))
	s.True(errors.Is(err, context.DeadlineExceeded))
}

// Patch tests

func (s *ServiceSuite) TestPatchRankPreservesNicknameAndRoles() {
	before := s.registered("1")
	s.clock.Advance(time.Minute)

	after, err := s.service.Patch(s.ctx, "1", model.FieldRank, model.Player{
		Nickname: "ignored",
		Rank:     model.RankRadiant,
		Roles:    []model.Role{model.RoleDuelist},
	})
	s.Require().NoError(err)
	s.Equal(model.RankRadiant, after.Rank)
	s.Equal(before.Nickname, after.Nickname)
	s.Equal(before.Roles, after.Roles)

	stored, err := s.service.Get(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(model.RankRadiant, stored.Rank)
	s.Equal(before.Nickname, stored.Nickname)
	s.Equal(before.Roles, stored.Roles)
	s.Equal(before.CreatedAt, stored.CreatedAt)
	s.Equal(s.clock.Now(), stored.UpdatedAt)
}

func (s *ServiceSuite) TestPatchNicknamePreservesRankAndRoles() {
	before := s.registered("1")

	after, err := s.service.Patch(s.ctx, "1", model.FieldNickname, model.Player{Nickname: " Reyna "})
	s.Require().NoError(err)
	s.Equal("Reyna", after.Nickname)
	s.Equal(before.Rank, after.Rank)
	s.Equal(before.Roles, after.Roles)
}

func (s *ServiceSuite) TestPatchRolesReplacesRolesOnly() {
	before := s.registered("1")

	after, err := s.service.Patch(s.ctx, "1", model.FieldRoles, model.Player{Roles: []model.Role{model.RoleSentinel}})
	s.Require().NoError(err)
	s.Equal([]model.Role{model.RoleSentinel}, after.Roles)
	s.Equal(before.Nickname, after.Nickname)
	s.Equal(before.Rank, after.Rank)
}

func (s *ServiceSuite) TestPatchUnknownPlayerIsNotFound() {
	_, err := s.service.Patch(s.ctx, "ghost", model.FieldRank, model.Player{Rank: model.RankGold})
	s.True(errors.Is(err, model.ErrPlayerNotFound))
}

func (s *ServiceSuite) TestPatchInvalidValueDoesNotWrite() {
	s.registered("1")
	writes := s.storage.Writes()

	_, err := s.service.Patch(s.ctx, "1", model.FieldRoles, model.Player{})
	s.True(model.IsValidation(err))
	s.Equal(writes, s.storage.Writes())
}

func (s *ServiceSuite) TestPatchRejectsUnknownField() {
	s.registered("1")

	_, err := s.service.Patch(s.ctx, "1", model.ProfileField("handle"), model.Player{})
	s.True(model.IsValidation(err))
}

// Delete tests

func (s *ServiceSuite) TestDeleteRemovesProfile() {
	s.registered("1")

	s.Require().NoError(s.service.Delete(s.ctx, "1"))

	_, err := s.service.Get(s.ctx, "1")
	s.True(errors.Is(err, model.ErrPlayerNotFound))
}

func (s *ServiceSuite) TestDeleteUnknownPlayerIsNotFound() {
	err := s.service.Delete(s.ctx, "ghost")
	s.True(errors.Is(err, model.ErrPlayerNotFound))
}

func (s *ServiceSuite) TestListReturnsAllPlayers() {
	s.registered("1")
	s.registered("2")

	players, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *ServiceSuite) TestListStoreFailureIsStoreError() {
	s.storage.FailOn(testutil.OpListPlayers, nil)

	_, err := s.service.List(s.ctx)
	s.True(model.IsStore(err))
}
