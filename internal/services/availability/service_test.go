package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
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
	mem := memory.New()
	s.storage = testutil.NewFaultyStorage(mem)
	// 22:30 UTC is already the next day at UTC+3
	s.clock = mocks.NewMockClock(time.Date(2024, 5, 1, 22, 30, 0, 0, time.UTC))
	calendar := clock.NewFixedCalendar(s.clock, "MSK", 3*time.Hour)
	s.service = New(s.storage, calendar, 50*time.Millisecond, testutil.NopLogger())
	s.ctx = context.Background()

	for _, id := range []string{"a", "b", "c"} {
		s.Require().NoError(mem.SavePlayer(s.ctx, &model.Player{
			ID: model.PlayerID(id), Nickname: "nick-" + id, Rank: model.RankGold, Roles: []model.Role{model.RoleDuelist},
		}))
	}
}

func (s *ServiceSuite) TestTodayUsesDisplayZone() {
	s.Equal(model.Date("2024-05-02"), s.service.Today())
}

func (s *ServiceSuite) TestDeclareStoresSortedWindows() {
	decl, err := s.service.Declare(s.ctx, "a", "2024-05-02", []model.TimeWindow{model.WindowNight, model.WindowMorning})
	s.Require().NoError(err)
	s.True(decl.IsAvailable)
	s.Equal([]model.TimeWindow{model.WindowMorning, model.WindowNight}, decl.Windows)

	got, err := s.service.Get(s.ctx, "a", "2024-05-02")
	s.Require().NoError(err)
	s.Equal(decl.Windows, got.Windows)
	s.True(s.clock.Now().Equal(got.UpdatedAt))
}

func (s *ServiceSuite) TestDeclareWithNoWindowsIsRejected() {
	_, err := s.service.Declare(s.ctx, "a", "2024-05-02", nil)
	s.True(model.IsValidation(err))
	s.Equal(0, s.storage.Calls(testutil.OpSaveDeclaration))

	_, err = s.service.Get(s.ctx, "a", "2024-05-02")
	s.True(errors.Is(err, model.ErrDeclarationNotFound))
}

func (s *ServiceSuite) TestDeclareUnknownWindowIsRejected() {
	_, err := s.service.Declare(s.ctx, "a", "2024-05-02", []model.TimeWindow{model.WindowDay, "brunch"})
	s.True(model.IsValidation(err))
	s.Equal(0, s.storage.Calls(testutil.OpSaveDeclaration))
}

func (s *ServiceSuite) TestDeclareBadDateIsRejected() {
	_, err := s.service.Declare(s.ctx, "a", "02.05.2024", []model.TimeWindow{model.WindowDay})
	s.True(model.IsValidation(err))
}

func (s *ServiceSuite) TestDeclareUnavailableStoresEmptyWindows() {
	_, err := s.service.Declare(s.ctx, "a", "2024-05-02", []model.TimeWindow{model.WindowDay})
	s.Require().NoError(err)

	decl, err := s.service.DeclareUnavailable(s.ctx, "a", "2024-05-02")
	s.Require().NoError(err)
	s.False(decl.IsAvailable)
	s.Empty(decl.Windows)

	got, err := s.service.Get(s.ctx, "a", "2024-05-02")
	s.Require().NoError(err)
	s.False(got.IsAvailable)
	s.Empty(got.Windows)
}

func (s *ServiceSuite) TestAvailableSkipsUnavailableAndOtherDates() {
	_, err := s.service.Declare(s.ctx, "a", "2024-05-02", []model.TimeWindow{model.WindowEvening})
	s.Require().NoError(err)
	_, err = s.service.DeclareUnavailable(s.ctx, "b", "2024-05-02")
	s.Require().NoError(err)
	_, err = s.service.Declare(s.ctx, "c", "2024-05-03", []model.TimeWindow{model.WindowEvening})
	s.Require().NoError(err)

	entries, err := s.service.Available(s.ctx, "2024-05-02")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(model.PlayerID("a"), entries[0].Player.ID)
	s.Equal("nick-a", entries[0].Player.Nickname)

	all, err := s.service.List(s.ctx, "2024-05-02", nil)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *ServiceSuite) TestAvailableDeclarationsAlwaysHaveWindows() {
	inputs := [][]model.TimeWindow{
		{},
		{model.WindowDay},
		nil,
		{model.WindowMorning, model.WindowDay, model.WindowEvening, model.WindowNight},
	}
	for _, windows := range inputs {
		_, _ = s.service.Declare(s.ctx, "a", "2024-05-02", windows)
		got, err := s.service.Get(s.ctx, "a", "2024-05-02")
		if err != nil {
			continue
		}
		if got.IsAvailable {
			s.NotEmpty(got.Windows)
		}
	}
}

func (s *ServiceSuite) TestStoreFailureIsStoreError() {
	s.storage.FailOn(testutil.OpSaveDeclaration, nil)

	_, err := s.service.Declare(s.ctx, "a", "2024-05-02", []model.TimeWindow{model.WindowDay})
	s.True(model.IsStore(err))
	s.True(errors.Is(err, testutil.ErrInjected))
}

func (s *ServiceSuite) TestListTimeoutIsStoreError() {
	s.storage.BlockOn(testutil.OpListDeclarations)

	_, err := s.service.Available(s.ctx, "2024-05-02")
	s.True(model.IsStore(err))
	s.True(errors.Is(err, context.DeadlineExceeded))
}
