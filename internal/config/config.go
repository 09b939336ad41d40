package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	DiscordToken string
	BotOwnerID   string

	DataDir      string
	DatabaseType string
	databaseURL  string
	sqlitePath   string

	ModLogChannelName string

	SchedulerIntervalSeconds   int
	CleanupIntervalSeconds     int
	RetentionDays              int
	HealthFlushIntervalSeconds int
)

// Load reads configuration from the environment, with .env support for
// local development.
func Load() {
	_ = godotenv.Load()

	DiscordToken = os.Getenv("DISCORD_TOKEN")
	BotOwnerID = os.Getenv("BOT_OWNER_ID")

	DataDir = getEnv("DATA_DIR", "data")
	DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	databaseURL = os.Getenv("DATABASE_URL")
	sqlitePath = getEnv("SQLITE_PATH", "warden.db")

	ModLogChannelName = getEnv("MOD_LOG_CHANNEL", "mod-logs")

	SchedulerIntervalSeconds = getEnvInt("SCHEDULER_INTERVAL_SECONDS", 60)
	CleanupIntervalSeconds = getEnvInt("CLEANUP_INTERVAL_SECONDS", 3600)
	RetentionDays = getEnvInt("RETENTION_DAYS", 30)
	HealthFlushIntervalSeconds = getEnvInt("HEALTH_FLUSH_INTERVAL_SECONDS", 30)
}

// GetDatabaseConnectionString returns the DSN matching DatabaseType.
func GetDatabaseConnectionString() string {
	if DatabaseType == "postgres" {
		return databaseURL
	}
	return sqlitePath
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
