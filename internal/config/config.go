package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DatabasePlaceholder is the connection string shipped in sample
// environments. It is treated exactly like an unset DATABASE_URL.
const DatabasePlaceholder = "postgresql://localhost:5432/discord_bot?sslmode=disable"

type Config struct {
	DiscordToken  string           `yaml:"discord_token"`
	DatabaseURL   string           `yaml:"database_url"`
	LogLevel      string           `yaml:"log_level"`
	BotOwnerID    string           `yaml:"bot_owner_id"`
	CommandPrefix string           `yaml:"command_prefix"`
	Health        HealthConfig     `yaml:"health"`
	Storage       StorageConfig    `yaml:"storage"`
	Registries    RegistriesConfig `yaml:"registries"`
	Ack           AckConfig        `yaml:"ack"`
	Invite        InviteConfig     `yaml:"invite"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type StorageConfig struct {
	MaxConns              int    `yaml:"max_conns"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	IdleTimeoutSeconds    int    `yaml:"idle_timeout_seconds"`
	SessionTTLHours       int    `yaml:"session_ttl_hours"`
	CleanupSchedule       string `yaml:"cleanup_schedule"`
}

type RegistriesConfig struct {
	MembercountTTLMinutes int `yaml:"membercount_ttl_minutes"`
}

type AckConfig struct {
	Color    int    `yaml:"color"`
	ImageURL string `yaml:"image_url"`
}

type InviteConfig struct {
	Permissions int64  `yaml:"permissions"`
	ServerURL   string `yaml:"server_url"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		CommandPrefix: "!",
		Health:        HealthConfig{Enabled: false, Addr: ":8080"},
		Storage: StorageConfig{
			MaxConns:              10,
			ConnectTimeoutSeconds: 2,
			IdleTimeoutSeconds:    30,
			SessionTTLHours:       24,
			CleanupSchedule:       "@every 6h",
		},
		Registries: RegistriesConfig{MembercountTTLMinutes: 60},
		Ack:        AckConfig{Color: 0xC8A2C8},
		Invite:     InviteConfig{Permissions: 8},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	normalize(&cfg)

	return cfg, nil
}

// DurableConfigured reports whether DatabaseURL names a real database.
func (c Config) DurableConfigured() bool {
	return DurableURL(c.DatabaseURL)
}

// DurableURL reports whether url names a real database: neither blank nor
// the placeholder shipped in example configs.
func DurableURL(url string) bool {
	url = strings.TrimSpace(url)
	return url != "" && url != DatabasePlaceholder
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.BotOwnerID = envString("BOT_OWNER_ID", cfg.BotOwnerID)
	cfg.CommandPrefix = envString("COMMAND_PREFIX", cfg.CommandPrefix)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Storage.MaxConns = envInt("DB_MAX_CONNS", cfg.Storage.MaxConns)
	cfg.Storage.ConnectTimeoutSeconds = envInt("DB_CONNECT_TIMEOUT_SECONDS", cfg.Storage.ConnectTimeoutSeconds)
	cfg.Storage.IdleTimeoutSeconds = envInt("DB_IDLE_TIMEOUT_SECONDS", cfg.Storage.IdleTimeoutSeconds)
	cfg.Storage.SessionTTLHours = envInt("HELP_SESSION_TTL_HOURS", cfg.Storage.SessionTTLHours)
	cfg.Storage.CleanupSchedule = envString("CLEANUP_SCHEDULE", cfg.Storage.CleanupSchedule)
	cfg.Registries.MembercountTTLMinutes = envInt("MEMBERCOUNT_TTL_MINUTES", cfg.Registries.MembercountTTLMinutes)
	cfg.Ack.Color = envInt("ACK_COLOR", cfg.Ack.Color)
	cfg.Ack.ImageURL = envString("ACK_IMAGE_URL", cfg.Ack.ImageURL)
	cfg.Invite.Permissions = int64(envInt("INVITE_PERMISSIONS", int(cfg.Invite.Permissions)))
	cfg.Invite.ServerURL = envString("INVITE_SERVER_URL", cfg.Invite.ServerURL)
}

func normalize(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = defaults.CommandPrefix
	}
	if cfg.Storage.MaxConns <= 0 {
		cfg.Storage.MaxConns = defaults.Storage.MaxConns
	}
	if cfg.Storage.ConnectTimeoutSeconds <= 0 {
		cfg.Storage.ConnectTimeoutSeconds = defaults.Storage.ConnectTimeoutSeconds
	}
	if cfg.Storage.IdleTimeoutSeconds <= 0 {
		cfg.Storage.IdleTimeoutSeconds = defaults.Storage.IdleTimeoutSeconds
	}
	if cfg.Storage.SessionTTLHours <= 0 {
		cfg.Storage.SessionTTLHours = defaults.Storage.SessionTTLHours
	}
	if strings.TrimSpace(cfg.Storage.CleanupSchedule) == "" {
		cfg.Storage.CleanupSchedule = defaults.Storage.CleanupSchedule
	}
	if cfg.Registries.MembercountTTLMinutes <= 0 {
		cfg.Registries.MembercountTTLMinutes = defaults.Registries.MembercountTTLMinutes
	}
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 0, 64); err == nil {
			return int(parsed)
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
