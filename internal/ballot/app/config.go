package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer    string        // Issuer claim for session tokens (default: ballotd)
	JWTSecret string        // Required: HS256 signing secret for session tokens
	TokenTTL  time.Duration // Session token lifetime (default: 1h)

	DatabaseFile string // Path to SQLite database file (default: ./ballot.db)
	PepperFile   string // Path to password hashing pepper file (default: ./pepper)

	SMTPAddr     string // host:port of the SMTP relay; empty disables email
	SMTPFrom     string // From address for outgoing mail
	SMTPUsername string // Optional SMTP auth
	SMTPPassword string

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:    getEnvOrDefault("BALLOT_ISSUER", "ballotd"),
		JWTSecret: os.Getenv("BALLOT_JWT_SECRET"),
		TokenTTL:  getEnvDurationOrDefault("BALLOT_TOKEN_TTL", time.Hour),

		DatabaseFile: getEnvOrDefault("BALLOT_DATABASE_FILE", "ballot.db"),
		PepperFile:   getEnvOrDefault("BALLOT_PEPPER_FILE", "pepper"),

		SMTPAddr:     os.Getenv("BALLOT_SMTP_ADDR"),
		SMTPFrom:     os.Getenv("BALLOT_SMTP_FROM"),
		SMTPUsername: os.Getenv("BALLOT_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("BALLOT_SMTP_PASSWORD"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
