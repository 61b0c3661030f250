package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without token")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("discord_token: file-token\nlog_level: debug\nstorage:\n  max_conns: 4\n  cleanup_schedule: \"@every 1h\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://db/bot")
	t.Setenv("ACK_COLOR", "0x00FF00")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DiscordToken != "file-token" {
		t.Fatalf("expected token from file, got %q", cfg.DiscordToken)
	}
	if cfg.Storage.MaxConns != 4 {
		t.Fatalf("expected max conns 4, got %d", cfg.Storage.MaxConns)
	}
	if cfg.Storage.CleanupSchedule != "@every 1h" {
		t.Fatalf("unexpected schedule %q", cfg.Storage.CleanupSchedule)
	}
	if cfg.Storage.SessionTTLHours != 24 {
		t.Fatalf("expected default ttl 24, got %d", cfg.Storage.SessionTTLHours)
	}
	if cfg.Ack.Color != 0x00FF00 {
		t.Fatalf("expected hex color from env, got %#x", cfg.Ack.Color)
	}
	if !cfg.DurableConfigured() {
		t.Fatalf("expected durable storage configured")
	}
}

func TestPlaceholderIsNotDurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DatabaseURL = DatabasePlaceholder
	if cfg.DurableConfigured() {
		t.Fatalf("placeholder must not count as configured")
	}
	cfg.DatabaseURL = "  "
	if cfg.DurableConfigured() {
		t.Fatalf("blank url must not count as configured")
	}
	if DurableURL(" " + DatabasePlaceholder + " ") {
		t.Fatalf("padded placeholder must not count as configured")
	}
	if !DurableURL("sqlite:///var/lib/bot.db") {
		t.Fatalf("sqlite url should count as configured")
	}
}
