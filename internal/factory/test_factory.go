package factory

import (
	"time"

	"github.com/mcoot/redblue/internal/config"
	"github.com/mcoot/redblue/internal/dependencies/mocks"
	"github.com/mcoot/redblue/internal/ratelimit"
	"github.com/mcoot/redblue/internal/storage/memory"
	"github.com/mcoot/redblue/internal/testutil"
)

// Credentials used by every TestApp
const (
	TestSecret        = "test-secret"
	TestAdminPassword = "admin-password"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockArchiver *mocks.Archiver
	Memory       *memory.Storage
}

// TestConfig returns the configuration NewTestApp uses
func TestConfig() config.Config {
	return config.Config{
		Port:              8000,
		StorageType:       config.StorageMemory,
		JWTSecret:         TestSecret,
		TokenTTL:          24 * time.Hour,
		AdminPassword:     TestAdminPassword,
		RoundTimeout:      60 * time.Second,
		PauseTimeout:      10 * time.Minute,
		LobbyTTL:          10 * time.Minute,
		FinishedRetention: time.Hour,
		ArchiveDriver:     config.ArchiveNone,
	}
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockArchiver := mocks.NewArchiver()

	app, err := newWithDependencies(dependencies{
		store:   store,
		archive: mockArchiver,
		limiter: ratelimit.Unlimited{},
		clock:   mockClock,
		random:  mockRandom,
		logger:  testutil.NopLogger(),
	}, TestConfig())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockArchiver: mockArchiver,
		Memory:       store,
	}
}
