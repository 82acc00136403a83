package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL string // Required: public origin used to build provider redirect URLs

	GoogleClientID      string // Optional: google login disabled when empty
	GoogleClientSecret  string
	DiscordClientID     string // Optional: discord login disabled when empty
	DiscordClientSecret string
	DiscordBotToken     string // Optional: guild auto-join disabled when empty
	DiscordGuildID      string

	SessionSecret string        // Required: >= 32 bytes, signs the session cookie
	SessionTTL    time.Duration // Optional: session lifetime (default: 7 days)
	SecureCookies bool          // Optional: Secure flag on cookies (default: true)

	AdminCodeHash string // Optional: argon2id hash of the admin promotion code

	DatabaseFile  string // Optional: path to SQLite database file (default: ./identity.db)
	RedisAddr     string // Optional: redis host:port (default: localhost:6379)
	RedisPassword string
	RedisDB       int

	PostLoginURL string // Optional: where successful callbacks land (default: /)
	LoginPageURL string // Optional: where failed callbacks land (default: /login)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		BaseURL: getEnvOrDefault("IDENTITY_BASE_URL", "http://localhost:8080"),

		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordBotToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuildID:      os.Getenv("DISCORD_GUILD_ID"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("SESSION_TTL", 7*24*time.Hour),
		SecureCookies: getEnvBoolOrDefault("SECURE_COOKIES", true),

		AdminCodeHash: os.Getenv("ADMIN_CODE_HASH"),

		DatabaseFile:  getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		PostLoginURL: getEnvOrDefault("POST_LOGIN_URL", "/"),
		LoginPageURL: getEnvOrDefault("LOGIN_PAGE_URL", "/login"),

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

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
