package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	TakeoutDir     string
	GroupPrefix    string
	UnmatchedLimit int
	NatsURL        string
	NatsToken      string
	DatabaseURL    string
	LogLevel       string
	SlackBotToken  string
	SlackChannel   string
	APIToken       string
}

// Load reads the configuration from the environment. Values in a .env file
// in the working directory are used for variables not already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:           envInt("RECONCILER_PORT", 8760),
		TakeoutDir:     envStr("TAKEOUT_DIR", ""),
		GroupPrefix:    envStr("GROUP_PREFIX", ""),
		UnmatchedLimit: envInt("REPORT_UNMATCHED_LIMIT", 20),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		SlackBotToken:  envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:   envStr("SLACK_REPORT_CHANNEL", ""),
		APIToken:       envStr("RECONCILER_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
