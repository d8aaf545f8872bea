package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/dependencies/mocks"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/availability"
	"github.com/mcoot/teamfinder/internal/services/profile"
	"github.com/mcoot/teamfinder/internal/session"
	sessionmemory "github.com/mcoot/teamfinder/internal/session/memory"
	"github.com/mcoot/teamfinder/internal/storage/memory"
	"github.com/mcoot/teamfinder/internal/testutil"
)

const (
	today    = model.Date("2024-05-02")
	todayURL = "https://example.test/today"
)

type EngineSuite struct {
	suite.Suite
	storage      *testutil.FaultyStorage
	clock        *mocks.MockClock
	sessions     *flakySessions
	profiles     *profile.Service
	availability *availability.Service
	engine       *Engine
	ctx          context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = testutil.NewFaultyStorage(memory.New())
	s.clock = mocks.NewMockClock(time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC))
	calendar := clock.NewFixedCalendar(s.clock, "MSK", 3*time.Hour)
	s.sessions = &flakySessions{Store: sessionmemory.New(s.clock, time.Hour)}
	s.profiles = profile.New(s.storage, s.clock, time.Second, logger)
	s.availability = availability.New(s.storage, calendar, time.Second, logger)
	s.engine = New(s.profiles, s.availability, s.sessions, Config{MatchLimit: 3, TodayURL: todayURL}, logger)
	s.ctx = context.Background()
}

// flakySessions fails Save while failSave is set
type flakySessions struct {
	*sessionmemory.Store
	failSave bool
}

func (f *flakySessions) Save(ctx context.Context, id model.PlayerID, sess *session.Session) error {
	if f.failSave {
		return errors.New("session backend down")
	}
	return f.Store.Save(ctx, id, sess)
}

func (s *EngineSuite) command(id, name string) model.Render {
	return s.engine.Handle(s.ctx, model.Event{Kind: model.EventCommand, UserID: model.PlayerID(id), Command: name})
}

func (s *EngineSuite) text(id, text string) model.Render {
	return s.engine.Handle(s.ctx, model.Event{Kind: model.EventText, UserID: model.PlayerID(id), Text: text})
}

func (s *EngineSuite) option(id, tag string) model.Render {
	return s.engine.Handle(s.ctx, model.Event{Kind: model.EventOption, UserID: model.PlayerID(id), Tag: tag})
}

func (s *EngineSuite) session(id string) *session.Session {
	sess, err := s.sessions.Get(s.ctx, model.PlayerID(id))
	s.Require().NoError(err)
	return sess
}

func (s *EngineSuite) register(id, nickname string, rank model.Rank, roles ...model.Role) {
	_, err := s.profiles.Upsert(s.ctx, model.Player{ID: model.PlayerID(id), Nickname: nickname, Rank: rank, Roles: roles})
	s.Require().NoError(err)
}

func tags(r model.Render) []string {
	out := make([]string, 0, len(r.Options))
	for _, o := range r.Options {
		if o.Tag != "" {
			out = append(out, o.Tag)
		}
	}
	return out
}

func labelFor(r model.Render, tag string) string {
	for _, o := range r.Options {
		if o.Tag == tag {
			return o.Label
		}
	}
	return ""
}

// Registration

func (s *EngineSuite) TestStartForNewUserAsksForNickname() {
	r := s.command("u1", "start")

	s.Contains(r.Text, "nickname")
	s.Equal(StateAwaitNickname, s.session("u1").State)
}

func (s *EngineSuite) TestStartForKnownPlayerShowsMenu() {
	s.register("u1", "Sage", model.RankGold, model.RoleSentinel)

	r := s.command("u1", "start")

	s.Contains(r.Text, "Sage")
	s.Contains(tags(r), TagPlayToday)
	s.Equal(StateIdle, s.session("u1").State)
}

func (s *EngineSuite) TestNicknameOutOfBoundsRepromptsWithoutWriting() {
	s.command("u1", "start")

	for _, bad := range []string{"a", " b ", strings.Repeat("x", 31), ""} {
		r := s.text("u1", bad)
		s.Equal(badNicknameText, r.Text)
		s.Equal(StateAwaitNickname, s.session("u1").State)
	}
	s.Equal(0, s.storage.Writes())
}

func (s *EngineSuite) TestNicknameBoundsAreInclusive() {
	s.command("u1", "start")
	s.text("u1", "ab")
	s.Equal(StateAwaitRank, s.session("u1").State)

	s.command("u2", "start")
	s.text("u2", strings.Repeat("я", 30))
	s.Equal(StateAwaitRank, s.session("u2").State)
}

func (s *EngineSuite) TestFullRegistration() {
	s.command("u1", "start")
	r := s.text("u1", "  Sage  ")
	s.Equal(RankOptions(), r.Options)

	r = s.option("u1", RankTag(model.RankGold))
	s.Equal(StateAwaitRoles, s.session("u1").State)
	s.NotContains(tags(r), TagRolesDone)

	s.option("u1", RoleTag(model.RoleSentinel))
	s.option("u1", RoleTag(model.RoleController))
	r = s.option("u1", RoleTag(model.RoleSentinel))
	s.Contains(tags(r), TagRolesDone)

	r = s.option("u1", TagRolesDone)
	s.Contains(r.Text, "Registration complete")
	s.Contains(tags(r), TagPlayToday)

	player, err := s.profiles.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("Sage", player.Nickname)
	s.Equal(model.RankGold, player.Rank)
	s.Equal([]model.Role{model.RoleController}, player.Roles)
	s.Equal(StateIdle, s.session("u1").State)
}

func (s *EngineSuite) TestRegistrationKeepsIdentityHints() {
	s.command("u1", "start")
	s.text("u1", "Sage")
	s.option("u1", RankTag(model.RankGold))
	s.option("u1", RoleTag(model.RoleSentinel))
	s.engine.Handle(s.ctx, model.Event{
		Kind: model.EventOption, UserID: "u1", Tag: TagRolesDone,
		DisplayName: "Anna", Handle: "anna_sage",
	})

	player, err := s.profiles.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("Anna", player.DisplayName)
	s.Equal("anna_sage", player.Handle)
}

func (s *EngineSuite) TestUnknownRankReprompts() {
	s.command("u1", "start")
	s.text("u1", "Sage")

	r := s.option("u1", "rank:Wood")

	s.Equal(RankOptions(), r.Options)
	s.NotEmpty(r.Notice)
	s.Equal(StateAwaitRank, s.session("u1").State)
}

func (s *EngineSuite) TestTextWhileAwaitingRankReprompts() {
	s.command("u1", "start")
	s.text("u1", "Sage")

	r := s.text("u1", "Gold please")

	s.Equal(RankOptions(), r.Options)
	s.Equal(StateAwaitRank, s.session("u1").State)
}

func (s *EngineSuite) TestRoleDoubleToggleIsIdempotent() {
	s.command("u1", "start")
	s.text("u1", "Sage")
	s.option("u1", RankTag(model.RankGold))
	s.option("u1", RoleTag(model.RoleInitiator))

	s.option("u1", RoleTag(model.RoleDuelist))
	r := s.option("u1", RoleTag(model.RoleDuelist))

	s.Equal([]model.Role{model.RoleInitiator}, s.session("u1").Roles)
	s.Equal(RoleOptions([]model.Role{model.RoleInitiator}), r.Options)
}

func (s *EngineSuite) TestRolesDoneRejectedWhenEmpty() {
	s.command("u1", "start")
	s.text("u1", "Sage")
	s.option("u1", RankTag(model.RankGold))
	s.option("u1", RoleTag(model.RoleDuelist))
	s.option("u1", RoleTag(model.RoleDuelist))

	r := s.option("u1", TagRolesDone)

	s.NotEmpty(r.Notice)
	s.Equal(StateAwaitRoles, s.session("u1").State)
	_, err := s.profiles.Get(s.ctx, "u1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *EngineSuite) TestRoleLabelsMarkSelection() {
	opts := RoleOptions([]model.Role{model.RoleController})
	r := model.Render{Options: opts}

	s.True(strings.HasPrefix(labelFor(r, RoleTag(model.RoleController)), selectedMark))
	s.False(strings.HasPrefix(labelFor(r, RoleTag(model.RoleDuelist)), selectedMark))
}

func (s *EngineSuite) TestStoreFailureKeepsPreviousState() {
	s.command("u1", "start")
	s.text("u1", "Sage")
	s.option("u1", RankTag(model.RankGold))
	s.option("u1", RoleTag(model.RoleSentinel))
	s.storage.FailOn(testutil.OpSavePlayer, nil)

	r := s.option("u1", TagRolesDone)

	s.Equal(retryText, r.Text)
	sess := s.session("u1")
	s.Equal(StateAwaitRoles, sess.State)
	s.Equal([]model.Role{model.RoleSentinel}, sess.Roles)

	s.storage.Heal()
	r = s.option("u1", TagRolesDone)
	s.Contains(r.Text, "Registration complete")
}

func (s *EngineSuite) TestSessionSaveFailureAsksToRetry() {
	s.command("u1", "start")
	s.sessions.failSave = true

	r := s.text("u1", "Sage")

	s.Equal(retryText, r.Text)
	s.Equal(StateAwaitNickname, s.session("u1").State)

	s.sessions.failSave = false
	r = s.text("u1", "Sage")
	s.Equal(RankOptions(), r.Options)

	r = s.option("u1", RankTag(model.RankGold))
	s.NotEqual(staleOptionText, r.Text)
	s.Equal(StateAwaitRoles, s.session("u1").State)
}

func (s *EngineSuite) TestCancelClearsSession() {
	s.command("u1", "start")
	s.text("u1", "Sage")

	r := s.command("u1", "cancel")

	s.Contains(r.Text, "/start")
	s.Equal(StateIdle, s.session("u1").State)
}

func (s *EngineSuite) TestIdleTextShowsHintAndMenu() {
	s.register("u1", "Sage", model.RankGold, model.RoleSentinel)

	r := s.text("u1", "hello?")

	s.Equal(idleHintText, r.Text)
	s.Equal(MainMenuOptions(todayURL), r.Options)
}

func (s *EngineSuite) TestMainMenuLinksToTodayPage() {
	opts := MainMenuOptions(todayURL)
	var links []model.Option
	for _, o := range opts {
		if o.IsLink() {
			links = append(links, o)
		}
	}
	s.Require().Len(links, 1)
	s.Equal(todayURL, links[0].URL)

	for _, o := range MainMenuOptions("") {
		s.False(o.IsLink())
	}
}

// Profile edits

func (s *EngineSuite) TestEditRankPreservesNicknameAndRoles() {
	s.register("u1", "Sage", model.RankGold, model.RoleSentinel, model.RoleController)

	r := s.option("u1", EditTag(model.FieldRank))
	s.Equal(RankOptions(), r.Options)
	s.Equal(StateAwaitRank, s.session("u1").State)

	r = s.option("u1", RankTag(model.RankImmortal))
	s.Contains(r.Text, "Profile updated")

	player, err := s.profiles.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(model.RankImmortal, player.Rank)
	s.Equal("Sage", player.Nickname)
	s.Equal([]model.Role{model.RoleSentinel, model.RoleController}, player.Roles)
	s.Equal(StateIdle, s.session("u1").State)
}

func (s *EngineSuite) TestEditNickname() {
	s.register("u1", "Sage", model.RankGold, model.RoleSentinel)

	s.option("u1", EditTag(model.FieldNickname))
	s.Equal(StateAwaitNickname, s.session("u1").State)

	r := s.text("u1", "x")
	s.Equal(badNicknameText, r.Text)

	s.text("u1", "Viper")

	player, err := s.profiles.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("Viper", player.Nickname)
	s.Equal(model.RankGold, player.Rank)
}

func (s *EngineSuite) TestEditRolesSeedsCurrentRoles() {
	s.register("u1", "Sage", model.RankGold, model.RoleSentinel)

	r := s.option("u1", EditTag(model.FieldRoles))
	s.Equal(RoleOptions([]model.Role{model.RoleSentinel}), r.Options)

	s.option("u1", RoleTag(model.RoleDuelist))
	s.option("u1", TagRolesDone)

	player, err := s.profiles.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]model.Role{model.RoleSentinel, model.RoleDuelist}, player.Roles)
	s.Equal("Sage", player.Nickname)
}

func (s *EngineSuite) TestEditWithoutProfileAsksToRegister() {
	r := s.option("u1", EditTag(model.FieldRank))

	s.Equal(registerFirstText, r.Text)
	s.Equal(StateAwaitNickname, s.session("u1").State)
}

func (s *EngineSuite) TestProfileCommandShowsEditMenu() {
	s.register("u1", "Sage", model.RankGold, model.RoleSentinel)

	r := s.command("u1", "profile")

	s.Contains(r.Text, "Sage")
	s.Equal(EditMenuOptions(), r.Options)
}

// Availability

func (s *EngineSuite) TestConfirmWindowsStoresAndListsTeammates() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)
	s.register("B", "Bravo", model.RankGold, model.RoleSentinel)
	s.register("C", "Charlie", model.RankGold, model.RoleInitiator)
	s.register("D", "Delta", model.RankGold, model.RoleController)
	_, err := s.availability.Declare(s.ctx, "B", today, []model.TimeWindow{model.WindowEvening, model.WindowNight})
	s.Require().NoError(err)
	_, err = s.availability.Declare(s.ctx, "C", today, []model.TimeWindow{model.WindowMorning})
	s.Require().NoError(err)
	_, err = s.availability.DeclareUnavailable(s.ctx, "D", today)
	s.Require().NoError(err)

	s.option("A", TagPlayToday)
	s.option("A", SlotTag(model.WindowEvening))
	r := s.option("A", TagSlotsConfirm)

	s.Contains(r.Text, "02.05.2024")
	s.Contains(r.Text, "in the evening")
	s.Contains(r.Text, "Bravo")
	s.NotContains(r.Text, "Charlie")
	s.NotContains(r.Text, "Delta")

	decl, err := s.availability.Get(s.ctx, "A", today)
	s.Require().NoError(err)
	s.True(decl.IsAvailable)
	s.Equal([]model.TimeWindow{model.WindowEvening}, decl.Windows)
	s.False(s.session("A").WindowsLoaded)
}

func (s *EngineSuite) TestConfirmWithNobodyElse() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)

	s.option("A", TagPlayToday)
	s.option("A", SlotTag(model.WindowNight))
	r := s.option("A", TagSlotsConfirm)

	s.Contains(r.Text, "Nobody else")
}

func (s *EngineSuite) TestConfirmEmptySelectionIsRejected() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)

	s.option("A", TagPlayToday)
	s.option("A", SlotTag(model.WindowDay))
	s.option("A", SlotTag(model.WindowDay))
	r := s.option("A", TagSlotsConfirm)

	s.NotEmpty(r.Notice)
	s.NotContains(tags(r), TagSlotsConfirm)
	s.Equal(0, s.storage.Calls(testutil.OpSaveDeclaration))
}

func (s *EngineSuite) TestPlayTodaySeedsCurrentPlan() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)
	_, err := s.availability.Declare(s.ctx, "A", today, []model.TimeWindow{model.WindowDay})
	s.Require().NoError(err)

	r := s.option("A", TagChangePlan)

	s.Contains(r.Text, "during the day")
	s.True(strings.HasPrefix(labelFor(r, SlotTag(model.WindowDay)), selectedMark))
	s.Equal([]model.TimeWindow{model.WindowDay}, s.session("A").Windows)
}

func (s *EngineSuite) TestChangePlanWithoutPlan() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)

	r := s.option("A", TagChangePlan)

	s.Contains(r.Text, "no plan")
	s.Empty(s.session("A").Windows)
}

func (s *EngineSuite) TestSlotAfterSessionEvictionReloadsDraft() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)
	_, err := s.availability.Declare(s.ctx, "A", today, []model.TimeWindow{model.WindowMorning})
	s.Require().NoError(err)
	s.option("A", TagPlayToday)
	s.clock.Advance(2 * time.Hour)

	s.option("A", SlotTag(model.WindowNight))

	s.Equal([]model.TimeWindow{model.WindowMorning, model.WindowNight}, s.session("A").Windows)
}

func (s *EngineSuite) TestSlotDuringRegistrationKeepsProgress() {
	s.command("u1", "start")
	s.text("u1", "Sage")

	r := s.option("u1", SlotTag(model.WindowNight))

	s.Equal(RankOptions(), r.Options)
	s.Equal(finishStepNotice, r.Notice)
	sess := s.session("u1")
	s.Equal(StateAwaitRank, sess.State)
	s.Equal("Sage", sess.Nickname)
	s.Empty(sess.Windows)

	s.option("u1", RankTag(model.RankGold))
	s.Equal(StateAwaitRoles, s.session("u1").State)
}

func (s *EngineSuite) TestSlotDuringEditKeepsEdit() {
	s.register("u1", "Sage", model.RankGold, model.RoleSentinel)
	s.option("u1", EditTag(model.FieldRoles))
	s.option("u1", RoleTag(model.RoleDuelist))

	r := s.option("u1", SlotTag(model.WindowNight))
	s.Equal(RoleOptions([]model.Role{model.RoleSentinel, model.RoleDuelist}), r.Options)

	r = s.option("u1", TagSlotsConfirm)
	s.Equal(finishStepNotice, r.Notice)
	s.Equal(0, s.storage.Calls(testutil.OpSaveDeclaration))

	sess := s.session("u1")
	s.Equal(StateAwaitRoles, sess.State)
	s.Equal(model.FieldRoles, sess.Editing)

	s.option("u1", TagRolesDone)
	player, err := s.profiles.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]model.Role{model.RoleSentinel, model.RoleDuelist}, player.Roles)
}

func (s *EngineSuite) TestDraftFromYesterdayIsReseeded() {
	// 23:45 MSK
	s.clock.Set(time.Date(2024, 5, 2, 20, 45, 0, 0, time.UTC))
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)
	_, err := s.availability.Declare(s.ctx, "A", today, []model.TimeWindow{model.WindowMorning})
	s.Require().NoError(err)
	s.option("A", TagChangePlan)
	s.option("A", SlotTag(model.WindowNight))
	declared := s.storage.Calls(testutil.OpSaveDeclaration)

	s.clock.Advance(30 * time.Minute)
	tomorrow := s.availability.Today()
	s.Require().Equal(model.Date("2024-05-03"), tomorrow)

	r := s.option("A", TagSlotsConfirm)
	s.NotEmpty(r.Notice)
	s.Equal(declared, s.storage.Calls(testutil.OpSaveDeclaration))
	s.Equal(tomorrow, s.session("A").WindowsDate)

	s.option("A", SlotTag(model.WindowEvening))
	s.option("A", TagSlotsConfirm)

	decl, err := s.availability.Get(s.ctx, "A", tomorrow)
	s.Require().NoError(err)
	s.Equal([]model.TimeWindow{model.WindowEvening}, decl.Windows)
	prev, err := s.availability.Get(s.ctx, "A", today)
	s.Require().NoError(err)
	s.Equal([]model.TimeWindow{model.WindowMorning}, prev.Windows)
}

func (s *EngineSuite) TestNotPlayingStoresUnavailable() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)
	_, err := s.availability.Declare(s.ctx, "A", today, []model.TimeWindow{model.WindowMorning})
	s.Require().NoError(err)

	r := s.option("A", TagNotPlaying)

	s.Equal(notPlayingText, r.Text)
	decl, err := s.availability.Get(s.ctx, "A", today)
	s.Require().NoError(err)
	s.False(decl.IsAvailable)
	s.Empty(decl.Windows)
}

func (s *EngineSuite) TestNotPlayingWithoutProfileAsksToRegister() {
	r := s.option("A", TagNotPlaying)

	s.Equal(registerFirstText, r.Text)
	s.Equal(0, s.storage.Calls(testutil.OpSaveDeclaration))
}

func (s *EngineSuite) TestSlotsCancelClearsDraft() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)
	s.option("A", TagPlayToday)
	s.option("A", SlotTag(model.WindowNight))

	r := s.option("A", TagSlotsCancel)

	s.Equal(MainMenuOptions(todayURL), r.Options)
	s.Empty(s.session("A").Windows)
	s.Equal(0, s.storage.Calls(testutil.OpSaveDeclaration))
}

func (s *EngineSuite) TestDeclarationStoreFailureKeepsDraft() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)
	s.option("A", TagPlayToday)
	s.option("A", SlotTag(model.WindowNight))
	s.storage.FailOn(testutil.OpSaveDeclaration, nil)

	r := s.option("A", TagSlotsConfirm)

	s.Equal(retryText, r.Text)
	s.Equal([]model.TimeWindow{model.WindowNight}, s.session("A").Windows)
}

func (s *EngineSuite) TestStaleButtonShowsMenu() {
	s.register("A", "Alpha", model.RankGold, model.RoleDuelist)

	r := s.option("A", RankTag(model.RankGold))

	s.Equal(staleOptionText, r.Text)
	s.NotEmpty(r.Notice)
}

func (s *EngineSuite) TestReminderOffersPlayAndNotPlaying() {
	r := Reminder(&model.Player{Nickname: "Alpha"})

	s.Contains(r.Text, "Alpha")
	s.Equal([]string{TagPlayToday, TagNotPlaying}, tags(r))
}
