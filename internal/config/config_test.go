package config

import (
	"testing"
	"time"

	"github.com/ruprime/tournament-bot/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBPath != "tournament.db" {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.RoleGrantWorkers != 4 {
		t.Fatalf("unexpected grant workers %d", cfg.RoleGrantWorkers)
	}
	if cfg.PubgTimeout != 10*time.Second {
		t.Fatalf("unexpected pubg timeout %v", cfg.PubgTimeout)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected log level %v", cfg.LogLevel)
	}
	if cfg.DiscordEnabled {
		t.Fatal("discord must be disabled by default")
	}
}

func TestLoad_MissingBotToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without bot token")
	}
}

func TestLoad_DiscordRequirements(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("DISCORD_ENABLED", "true")
	t.Setenv("DISCORD_BOT_TOKEN", "discord-token")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without guild id")
	}

	t.Setenv("DISCORD_GUILD_ID", "42")
	t.Setenv("DISCORD_PARTICIPANT_ROLE_ID", "777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.DiscordEnabled || cfg.DiscordGuildID != "42" {
		t.Fatalf("unexpected discord config %+v", cfg)
	}
}
