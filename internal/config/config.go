package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	CacheKey string         `yaml:"cache_key"`
	LogLevel string         `yaml:"log_level"`
	HTTPAddr string         `yaml:"http_addr"`
	NATS     NATSConfig     `yaml:"nats"`
	Sync     SyncConfig     `yaml:"sync"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
}

// NATSConfig configures the change feed connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = no change feed)
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// SyncConfig toggles optional safeguards of the sync engine
type SyncConfig struct {
	StrictReorder bool `yaml:"strict_reorder"`
	RevisionGuard bool `yaml:"revision_guard"`
}

// WhatsAppConfig configures the group chat used for notifications and
// plan-item commands
type WhatsAppConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
	// Chat is a group JID (…@g.us) or a phone number
	Chat string `yaml:"chat"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		CacheKey: "trip-planner-storage-v3",
		LogLevel: "info",
		HTTPAddr: ":8080",
		NATS: NATSConfig{
			SubjectPrefix: "tripsync.trips",
		},
	}
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment variables on top
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.DataDir = getEnv("TRIPSYNC_DATA_DIR", cfg.DataDir)
	cfg.CacheKey = getEnv("TRIPSYNC_CACHE_KEY", cfg.CacheKey)
	cfg.LogLevel = getEnv("TRIPSYNC_LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPAddr = getEnv("TRIPSYNC_HTTP_ADDR", cfg.HTTPAddr)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.SubjectPrefix = getEnv("TRIPSYNC_SUBJECT_PREFIX", cfg.NATS.SubjectPrefix)
	cfg.Sync.StrictReorder = getEnvBool("TRIPSYNC_STRICT_REORDER", cfg.Sync.StrictReorder)
	cfg.Sync.RevisionGuard = getEnvBool("TRIPSYNC_REVISION_GUARD", cfg.Sync.RevisionGuard)
	cfg.WhatsApp.Enabled = getEnvBool("WHATSAPP_ENABLED", cfg.WhatsApp.Enabled)
	cfg.WhatsApp.DataDir = getEnv("WHATSAPP_DATA_DIR", cfg.WhatsApp.DataDir)
	cfg.WhatsApp.Chat = getEnv("WHATSAPP_CHAT", cfg.WhatsApp.Chat)

	if cfg.WhatsApp.DataDir == "" {
		cfg.WhatsApp.DataDir = cfg.DataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.CacheKey == "" {
		return fmt.Errorf("cache_key is required")
	}
	if c.WhatsApp.Enabled && c.WhatsApp.Chat == "" {
		return fmt.Errorf("whatsapp.chat is required when whatsapp is enabled")
	}
	return nil
}

// DatabasePath is the sqlite file standing in for the remote trip store
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "trips.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
