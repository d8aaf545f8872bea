// Package sessiontest holds the behaviour every session store must share.
package sessiontest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/session"
)

// Suite is embedded by each store's test suite, which sets Store and Ctx in
// its SetupTest
type Suite struct {
	suite.Suite
	Store session.Store
	Ctx   context.Context
}

func (s *Suite) TestAbsentSessionIsIdle() {
	got, err := s.Store.Get(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(session.State(""), got.State)
	s.Empty(got.Roles)
}

func (s *Suite) TestSaveAndGet() {
	in := &session.Session{
		State:    "await_roles",
		Nickname: "Omen",
		Rank:     model.RankDiamond,
		Roles:    []model.Role{model.RoleController},
	}
	s.Require().NoError(s.Store.Save(s.Ctx, "u1", in))

	got, err := s.Store.Get(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(session.State("await_roles"), got.State)
	s.Equal("Omen", got.Nickname)
	s.Equal(model.RankDiamond, got.Rank)
	s.Equal([]model.Role{model.RoleController}, got.Roles)
	s.False(got.UpdatedAt.IsZero())
}

func (s *Suite) TestWindowsDraftRoundTrips() {
	in := &session.Session{
		Windows:       []model.TimeWindow{model.WindowEvening, model.WindowNight},
		WindowsLoaded: true,
	}
	s.Require().NoError(s.Store.Save(s.Ctx, "u1", in))

	got, err := s.Store.Get(s.Ctx, "u1")
	s.Require().NoError(err)
	s.True(got.WindowsLoaded)
	s.Equal([]model.TimeWindow{model.WindowEvening, model.WindowNight}, got.Windows)
}

func (s *Suite) TestSavedSessionIsNotAliased() {
	in := &session.Session{Roles: []model.Role{model.RoleDuelist}}
	s.Require().NoError(s.Store.Save(s.Ctx, "u1", in))
	in.Roles[0] = model.RoleSentinel

	got, err := s.Store.Get(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]model.Role{model.RoleDuelist}, got.Roles)
}

func (s *Suite) TestSessionsAreIsolatedByUser() {
	s.Require().NoError(s.Store.Save(s.Ctx, "u1", &session.Session{Nickname: "one"}))
	s.Require().NoError(s.Store.Save(s.Ctx, "u2", &session.Session{Nickname: "two"}))

	a, err := s.Store.Get(s.Ctx, "u1")
	s.Require().NoError(err)
	b, err := s.Store.Get(s.Ctx, "u2")
	s.Require().NoError(err)
	s.Equal("one", a.Nickname)
	s.Equal("two", b.Nickname)
}

func (s *Suite) TestDelete() {
	s.Require().NoError(s.Store.Save(s.Ctx, "u1", &session.Session{State: "await_nickname"}))
	s.Require().NoError(s.Store.Delete(s.Ctx, "u1"))

	got, err := s.Store.Get(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(session.State(""), got.State)
}

func (s *Suite) TestDeleteAbsentIsNoop() {
	s.NoError(s.Store.Delete(s.Ctx, "nobody"))
}
