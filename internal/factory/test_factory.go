package factory

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/dependencies/mocks"
	memsession "github.com/mcoot/teamfinder/internal/session/memory"
	"github.com/mcoot/teamfinder/internal/storage/memory"
	"github.com/mcoot/teamfinder/internal/testutil"
)

// TestAdminKey is the admin key accepted by a TestApp
const TestAdminKey = "test-admin-key"

var adminKeyHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestAdminKey), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
})

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockSender *mocks.MockSender
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The clock starts at 2024-05-02 09:00 UTC and the display zone is UTC+3,
// so "today" is 2024-05-02.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockSender := mocks.NewMockSender()

	deps := Dependencies{
		Storage:  store,
		Sessions: memsession.New(mockClock, time.Hour),
		Clock:    mockClock,
		Calendar: clock.NewFixedCalendar(mockClock, "MSK", 3*time.Hour),
		Random:   mockRandom,
		Sender:   mockSender,
	}
	settings := Settings{
		StoreTimeout: time.Second,
		MatchLimit:   3,
		MenuLink:     "http://teamfinder.test/today",
		NotifyTimes:  []string{"10:00", "18:00"},
		AdminKeyHash: adminKeyHash(),
	}

	app, err := newWithDependencies(deps, nil, settings, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockSender: mockSender,
		Memory:     store,
	}
}
