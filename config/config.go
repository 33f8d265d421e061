package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Session       SessionConfig
	Payments      PaymentsConfig
	Verification  VerificationConfig
	EventTriggers EventTriggerFunctionsConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Cache         CacheConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

type SessionConfig struct {
	JWTSecret            string
	JWTIssuer            string
	SessionTTLHours      int
	ResetTokenTTLMinutes int
	CookieDomain         string
	CookieSecure         bool
}

type PaymentsConfig struct {
	SecretKey     string
	WebhookSecret string
	APIBaseURL    string
	DemoEnabled   bool
	// WebhookToleranceSeconds bounds how stale a signed webhook timestamp may be
	WebhookToleranceSeconds int
}

type VerificationConfig struct {
	CooldownDays         int
	DecisionLinkTTLDays  int
	DecisionLinkBaseURL  string // defaults to Server.BaseURL when empty
	RequireOverrideNotes bool
}

type EventTriggerFunctionsConfig struct {
	TrainerAppliedTriggerURL   string
	TrainerApprovedTriggerURL  string
	TrainerRejectedTriggerURL  string
	BookingCreatedTriggerURL   string
	ReviewCreatedTriggerURL    string
	PasswordResetTriggerURL    string
	SessionScheduledTriggerURL string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	CollectorEndpoint string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	TrainerTTLSeconds    int  // Verified trainer listing cache TTL in seconds
	DisableTrainersCache bool // Read from DB on every request
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "https://tutorhub.dev")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://tutorhub.dev,https://www.tutorhub.dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "alloy:4318") // OTLP over HTTP
	v.SetDefault("O11Y_BE_SERVICE_NAME", "tutorhub-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "tutorhub-dev")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "tutorhub-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)
	v.SetDefault("TRAINER_CACHE_TTL", 600) // 10 minutes in seconds
	v.SetDefault("DISABLE_TRAINERS_CACHE", false)

	// Session defaults
	v.SetDefault("JWT_ISSUER", "tutorhub-api")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("RESET_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)

	// Payments defaults
	v.SetDefault("PAYMENTS_API_BASE_URL", "https://api.paygate.example.com/v1")
	v.SetDefault("PAYMENTS_DEMO_ENABLED", true)
	v.SetDefault("PAYMENTS_WEBHOOK_TOLERANCE_SECONDS", 300)

	// Trainer verification defaults
	v.SetDefault("VERIFICATION_COOLDOWN_DAYS", 30)
	v.SetDefault("VERIFICATION_DECISION_LINK_TTL_DAYS", 7)
	v.SetDefault("VERIFICATION_REQUIRE_OVERRIDE_NOTES", true)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	// Parse allowed CORS origins (comma-separated)
	allowedOrigins := []string{}
	originsStr := v.GetString("ALLOWED_CORS_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: allowedOrigins,
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: 20,
			MinConns: 2,
		},
		Session: SessionConfig{
			JWTSecret:            v.GetString("JWT_SECRET"),
			JWTIssuer:            v.GetString("JWT_ISSUER"),
			SessionTTLHours:      v.GetInt("SESSION_TTL_HOURS"),
			ResetTokenTTLMinutes: v.GetInt("RESET_TOKEN_TTL_MINUTES"),
			CookieDomain:         v.GetString("COOKIE_DOMAIN"),
			CookieSecure:         v.GetBool("COOKIE_SECURE"),
		},
		Payments: PaymentsConfig{
			SecretKey:               v.GetString("PAYMENTS_SECRET_KEY"),
			WebhookSecret:           v.GetString("PAYMENTS_WEBHOOK_SECRET"),
			APIBaseURL:              v.GetString("PAYMENTS_API_BASE_URL"),
			DemoEnabled:             v.GetBool("PAYMENTS_DEMO_ENABLED"),
			WebhookToleranceSeconds: v.GetInt("PAYMENTS_WEBHOOK_TOLERANCE_SECONDS"),
		},
		Verification: VerificationConfig{
			CooldownDays:         v.GetInt("VERIFICATION_COOLDOWN_DAYS"),
			DecisionLinkTTLDays:  v.GetInt("VERIFICATION_DECISION_LINK_TTL_DAYS"),
			DecisionLinkBaseURL:  v.GetString("VERIFICATION_DECISION_LINK_BASE_URL"),
			RequireOverrideNotes: v.GetBool("VERIFICATION_REQUIRE_OVERRIDE_NOTES"),
		},
		EventTriggers: EventTriggerFunctionsConfig{
			TrainerAppliedTriggerURL:   v.GetString("TRAINER_APPLIED_TRIGGER_URL"),
			TrainerApprovedTriggerURL:  v.GetString("TRAINER_APPROVED_TRIGGER_URL"),
			TrainerRejectedTriggerURL:  v.GetString("TRAINER_REJECTED_TRIGGER_URL"),
			BookingCreatedTriggerURL:   v.GetString("BOOKING_CREATED_TRIGGER_URL"),
			ReviewCreatedTriggerURL:    v.GetString("REVIEW_CREATED_TRIGGER_URL"),
			PasswordResetTriggerURL:    v.GetString("PASSWORD_RESET_TRIGGER_URL"),
			SessionScheduledTriggerURL: v.GetString("SESSION_SCHEDULED_TRIGGER_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			CollectorEndpoint: v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			TrainerTTLSeconds:    v.GetInt("TRAINER_CACHE_TTL"),
			DisableTrainersCache: v.GetBool("DISABLE_TRAINERS_CACHE"),
		},
	}

	if cfg.Verification.DecisionLinkBaseURL == "" {
		cfg.Verification.DecisionLinkBaseURL = cfg.Server.BaseURL
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Session.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Payments.WebhookSecret == "" {
		return fmt.Errorf("PAYMENTS_WEBHOOK_SECRET is required")
	}
	if c.Payments.SecretKey == "" && !c.Payments.DemoEnabled {
		return fmt.Errorf("PAYMENTS_SECRET_KEY is required when demo payments are disabled")
	}

	if c.Verification.CooldownDays <= 0 {
		return fmt.Errorf("VERIFICATION_COOLDOWN_DAYS must be positive")
	}
	if c.Verification.DecisionLinkTTLDays <= 0 {
		return fmt.Errorf("VERIFICATION_DECISION_LINK_TTL_DAYS must be positive")
	}

	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
