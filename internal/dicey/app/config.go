package app

import (
	"os"
	"strconv"
	"time"

	"github.com/diceydecisions/dicey/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim for tokens (default: dicey)

	// Token secrets. Each use gets its own secret so one token kind can
	// never stand in for another. All three are required and must be at
	// least 32 bytes.
	AccessSecret       string
	RefreshSecret      string
	VerificationSecret string

	AccessTTL       time.Duration // Access token lifetime (default: 30m)
	RefreshTTL      time.Duration // Refresh token lifetime (default: 168h)
	VerificationTTL time.Duration // Verification token lifetime (default: 1h)
	PendingTTL      time.Duration // Unverified registration lifetime (default: 24h)

	CronSecret string // Bearer secret the sweep scheduler presents

	InactivityWindow time.Duration // Idle time before the sweep closes a room (default: 30m)

	VerifyBaseURL string // Frontend URL verification links point at

	// SMTP settings. Leaving SMTPHost empty switches mail delivery to the
	// log.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	DatabaseFile         string        // Path to SQLite database file (default: ./dicey.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	SecureCookies        bool          // Mark auth cookies Secure (default: true outside dev)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:             getEnvOrDefault("DICEY_ISSUER", "dicey"),
		AccessSecret:       os.Getenv("DICEY_ACCESS_SECRET"),
		RefreshSecret:      os.Getenv("DICEY_REFRESH_SECRET"),
		VerificationSecret: os.Getenv("DICEY_VERIFICATION_SECRET"),

		AccessTTL:       getEnvDurationOrDefault("DICEY_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:      getEnvDurationOrDefault("DICEY_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		VerificationTTL: getEnvDurationOrDefault("DICEY_VERIFICATION_TTL", jwtx.DefaultVerificationTokenTTL),
		PendingTTL:      getEnvDurationOrDefault("DICEY_PENDING_TTL", 24*time.Hour),

		CronSecret: os.Getenv("CRON_SECRET"),

		InactivityWindow: getEnvDurationOrDefault("DICEY_INACTIVITY_WINDOW", 30*time.Minute),

		VerifyBaseURL: getEnvOrDefault("DICEY_VERIFY_BASE_URL", "http://localhost:3000/verify"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@diceydecisions.app"),

		DatabaseFile:         getEnvOrDefault("DICEY_DATABASE_FILE", "dicey.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	cfg.SecureCookies = cfg.Env != "dev"
	if v := os.Getenv("DICEY_SECURE_COOKIES"); v != "" {
		cfg.SecureCookies = v == "true" || v == "1"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
