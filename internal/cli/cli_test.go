package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/teamfinder/internal/api"
	"github.com/mcoot/teamfinder/internal/factory"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:       testutil.NopLogger(),
		Clock:        s.app.Clock,
		Profiles:     s.app.Profiles,
		Availability: s.app.Availability,
		Auth:         s.app.Auth,
		Scheduler:    s.app.Scheduler,
	}))

	ctx := context.Background()
	_, err := s.app.Profiles.Upsert(ctx, model.Player{
		ID: "1", Nickname: "Jett", Handle: "jett_main", Rank: model.RankGold, Roles: []model.Role{model.RoleDuelist},
	})
	s.Require().NoError(err)
	_, err = s.app.Profiles.Upsert(ctx, model.Player{
		ID: "2", Nickname: "Sage", Rank: model.RankSilver, Roles: []model.Role{model.RoleSentinel},
	})
	s.Require().NoError(err)
	_, err = s.app.Availability.Declare(ctx, "1", s.app.Availability.Today(), []model.TimeWindow{model.WindowEvening, model.WindowNight})
	s.Require().NoError(err)
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
}

// run executes the CLI with args against the test server
func (s *CLISuite) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", s.server.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) TestHealth() {
	out, err := s.run("health")
	s.Require().NoError(err)
	s.Contains(out, "Status: ok")
}

func (s *CLISuite) TestHealthLive() {
	out, err := s.run("health", "--live")
	s.Require().NoError(err)
	s.Contains(out, "Server is live")
}

func (s *CLISuite) TestTodayText() {
	out, err := s.run("today")
	s.Require().NoError(err)
	s.Contains(out, "Playing on 2024-05-02: 1")
	s.Contains(out, "Jett @jett_main [Gold] duelist: evening, night")
	s.NotContains(out, "Sage")
}

func (s *CLISuite) TestTodayJSON() {
	out, err := s.run("today", "-o", "json")
	s.Require().NoError(err)

	var result TodayResult
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.Equal(1, result.Count)
	s.Equal([]string{"evening", "night"}, result.Players[0].Windows)
}

func (s *CLISuite) TestTodayBadDate() {
	_, err := s.run("today", "--date", "yesterday")
	s.Require().Error(err)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(400, apiErr.Status)
}

func (s *CLISuite) TestStats() {
	out, err := s.run("stats")
	s.Require().NoError(err)
	s.Contains(out, "Registered players: 2")
	s.Contains(out, "Playing today: 1")
}

func (s *CLISuite) TestPlayerDeleteNeedsKey() {
	_, err := s.run("player", "delete", "2")
	s.ErrorIs(err, ErrAdminKeyMissing)
}

func (s *CLISuite) TestPlayerDeleteWrongKey() {
	_, err := s.run("--admin-key", "nope", "player", "delete", "2")

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(401, apiErr.Status)
}

func (s *CLISuite) TestPlayerDelete() {
	out, err := s.run("--admin-key", factory.TestAdminKey, "player", "delete", "2")
	s.Require().NoError(err)
	s.Contains(out, "Player 2 deleted")

	_, err = s.app.Profiles.Get(context.Background(), "2")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *CLISuite) TestBroadcast() {
	s.app.MockRandom.QueueUUID("run-7")

	out, err := s.run("--admin-key", factory.TestAdminKey, "broadcast")
	s.Require().NoError(err)
	s.Contains(out, "Broadcast run-7")
	s.Contains(out, "Delivered: 2/2")
	s.Len(s.app.MockSender.Sent(), 2)
}

func (s *CLISuite) TestHashKeyFromArg() {
	out, err := s.run("hash-key", "operator")
	s.Require().NoError(err)

	hash := strings.TrimSpace(out)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(hash), []byte("operator")))
}

func (s *CLISuite) TestHashKeyFromStdin() {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("from-stdin\n"))
	cmd.SetArgs([]string{"hash-key"})
	s.Require().NoError(cmd.Execute())

	hash := strings.TrimSpace(out.String())
	s.NoError(bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
}
