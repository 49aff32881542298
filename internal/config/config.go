package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ruprime/tournament-bot/internal/platform/logging"
)

// Config stores runtime configuration for the bot.
type Config struct {
	BotToken        string
	AdminTelegramID int64
	DBPath          string
	ChannelID       string

	DiscordEnabled           bool
	DiscordToken             string
	DiscordGuildID           string
	DiscordParticipantRoleID string
	DiscordCaptainRoleID     string
	RoleGrantWorkers         int

	PubgBaseURL               string
	PubgTimeout               time.Duration
	PubgCircuitEnabled        bool
	PubgCircuitFailureCount   int
	PubgCircuitOpenTimeout    time.Duration
	PubgCircuitHalfOpenMaxReq int

	LogLevel logging.Level
}

func Load() (Config, error) {
	botToken := strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", ""))
	if botToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	adminTelegramID, err := getEnvAsInt64("ADMIN_TELEGRAM_ID", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse ADMIN_TELEGRAM_ID: %w", err)
	}
	if adminTelegramID < 0 {
		return Config{}, fmt.Errorf("ADMIN_TELEGRAM_ID must be >= 0")
	}

	discordEnabled, err := strconv.ParseBool(getEnv("DISCORD_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DISCORD_ENABLED: %w", err)
	}
	discordToken := strings.TrimSpace(getEnv("DISCORD_BOT_TOKEN", ""))
	discordGuildID := strings.TrimSpace(getEnv("DISCORD_GUILD_ID", ""))
	discordParticipantRoleID := strings.TrimSpace(getEnv("DISCORD_PARTICIPANT_ROLE_ID", ""))
	discordCaptainRoleID := strings.TrimSpace(getEnv("DISCORD_CAPTAIN_ROLE_ID", ""))
	if discordEnabled {
		if discordToken == "" {
			return Config{}, fmt.Errorf("DISCORD_BOT_TOKEN is required when DISCORD_ENABLED=true")
		}
		if discordGuildID == "" {
			return Config{}, fmt.Errorf("DISCORD_GUILD_ID is required when DISCORD_ENABLED=true")
		}
		if discordParticipantRoleID == "" {
			return Config{}, fmt.Errorf("DISCORD_PARTICIPANT_ROLE_ID is required when DISCORD_ENABLED=true")
		}
	}

	roleGrantWorkers, err := getEnvAsInt("ROLE_GRANT_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROLE_GRANT_WORKERS: %w", err)
	}
	if roleGrantWorkers < 1 {
		return Config{}, fmt.Errorf("ROLE_GRANT_WORKERS must be >= 1")
	}

	pubgTimeout, err := time.ParseDuration(getEnv("PUBG_API_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PUBG_API_TIMEOUT: %w", err)
	}
	if pubgTimeout <= 0 {
		return Config{}, fmt.Errorf("PUBG_API_TIMEOUT must be > 0")
	}
	pubgCircuitEnabled, err := strconv.ParseBool(getEnv("PUBG_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PUBG_CIRCUIT_ENABLED: %w", err)
	}
	pubgCircuitFailureCount, err := getEnvAsInt("PUBG_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PUBG_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if pubgCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("PUBG_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	pubgCircuitOpenTimeout, err := time.ParseDuration(getEnv("PUBG_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PUBG_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if pubgCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("PUBG_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	pubgCircuitHalfOpenMaxReq, err := getEnvAsInt("PUBG_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PUBG_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if pubgCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("PUBG_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	logLevel, err := logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	return Config{
		BotToken:        botToken,
		AdminTelegramID: adminTelegramID,
		DBPath:          strings.TrimSpace(getEnv("DB_PATH", "tournament.db")),
		ChannelID:       strings.TrimSpace(getEnv("CHANNEL_ID", "")),

		DiscordEnabled:           discordEnabled,
		DiscordToken:             discordToken,
		DiscordGuildID:           discordGuildID,
		DiscordParticipantRoleID: discordParticipantRoleID,
		DiscordCaptainRoleID:     discordCaptainRoleID,
		RoleGrantWorkers:         roleGrantWorkers,

		PubgBaseURL:               strings.TrimSpace(getEnv("PUBG_API_BASE_URL", "https://api.pubg.report")),
		PubgTimeout:               pubgTimeout,
		PubgCircuitEnabled:        pubgCircuitEnabled,
		PubgCircuitFailureCount:   pubgCircuitFailureCount,
		PubgCircuitOpenTimeout:    pubgCircuitOpenTimeout,
		PubgCircuitHalfOpenMaxReq: pubgCircuitHalfOpenMaxReq,

		LogLevel: logLevel,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}
