package services_test

import (
	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

// testConfig returns a config with the defaults the services under test need.
// Trigger URLs stay empty so no notification goroutines fire.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BaseURL: "https://tutorhub.test",
		},
		Session: config.SessionConfig{
			ResetTokenTTLMinutes: 15,
		},
		Verification: config.VerificationConfig{
			CooldownDays:        30,
			DecisionLinkTTLDays: 7,
			DecisionLinkBaseURL: "https://tutorhub.test",
		},
	}
}
