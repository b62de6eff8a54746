package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./board.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Issuer       string // Optional: issuer label shown in authenticator apps (default: ClassBoard)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	SessionTTL          time.Duration // Session lifetime (default: 14 days)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	ReminderHorizon      time.Duration // How far ahead due-date reminders look (default: 24h)

	CookieSecure  bool   // Mark session cookies Secure; enable behind TLS
	AllowedOrigin string // Optional: restrict websocket origins; empty allows all

	// Bootstrap administrator, created at startup when no account with
	// that username exists. All three must be set for bootstrap to run.
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("BOARD_DATABASE_FILE", "board.db"),
		PepperFile:   getEnvOrDefault("BOARD_PEPPER_FILE", "pepper"),
		Issuer:       getEnvOrDefault("BOARD_ISSUER", "ClassBoard"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		SessionTTL:          getEnvDurationOrDefault("BOARD_SESSION_TTL", 14*24*time.Hour),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
		ReminderHorizon:      getEnvDurationOrDefault("BOARD_REMINDER_HORIZON", 24*time.Hour),

		CookieSecure:  getEnvBoolOrDefault("BOARD_COOKIE_SECURE", false),
		AllowedOrigin: os.Getenv("BOARD_ALLOWED_ORIGIN"),

		AdminUsername: os.Getenv("BOARD_ADMIN_USERNAME"),
		AdminPassword: os.Getenv("BOARD_ADMIN_PASSWORD"),
		AdminEmail:    os.Getenv("BOARD_ADMIN_EMAIL"),
	}
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
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
