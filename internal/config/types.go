// Package config provides configuration loading and management for advpal.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. A .env file in the working directory, if present, is loaded
// into the environment first. The defaults work out of the box: stories are kept
// as JSON files under the user's data directory.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [StoreConfig] selects and configures the channel store backend
//
// Configuration priority (highest to lowest):
//  1. Environment variables (ADVPAL_ prefix, e.g. ADVPAL_STORE_BACKEND)
//  2. Config file specified by ADVPAL_CONFIG_PATH or --config
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/advpal/config.yaml
//     - macOS: ~/Library/Application Support/advpal/config.yaml
//     - Windows: %APPDATA%\advpal\config.yaml
//  4. ./advpal.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Store backend names accepted by [StoreConfig.Backend].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// CommandPrefix is the word that starts a command line, and the reserved
	// prefix no state id may use.
	// Default: "advpal"
	CommandPrefix string `mapstructure:"command_prefix" validate:"required,alphanum"`

	// Channel is the channel used when --channel is not given.
	// Default: "default"
	Channel string `mapstructure:"channel" validate:"required"`

	// Store selects where channel stories are persisted.
	Store StoreConfig `mapstructure:"store"`

	// Fetch bounds story downloads.
	Fetch FetchConfig `mapstructure:"fetch"`

	// Log configures diagnostics on stderr.
	Log LogConfig `mapstructure:"log"`

	// Render configures terminal output.
	Render RenderConfig `mapstructure:"render"`
}

// StoreConfig selects the channel store backend.
type StoreConfig struct {
	// Backend is one of memory, file, redis or sqlite.
	// Default: "file"
	Backend string `mapstructure:"backend" validate:"oneof=memory file redis sqlite"`

	// Dir holds one JSON file per channel for the file backend.
	Dir string `mapstructure:"dir" validate:"required_if=Backend file"`

	Redis  RedisConfig  `mapstructure:"redis"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr" validate:"required"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SQLiteConfig contains the SQLite database location.
type SQLiteConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// FetchConfig bounds downloads of story URLs.
type FetchConfig struct {
	// Timeout is the whole-request deadline.
	// Default: 10s
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// MaxBytes is the largest accepted story document.
	// Default: 1 MiB
	MaxBytes int64 `mapstructure:"max_bytes" validate:"gt=0"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: "warn"
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Encoding is console or json.
	// Default: "console"
	Encoding string `mapstructure:"encoding" validate:"oneof=console json"`
}

// RenderConfig contains terminal rendering settings.
type RenderConfig struct {
	// Width is the column width story text is wrapped to.
	// Default: 72
	Width int `mapstructure:"width" validate:"gte=20"`

	// Color enables styled output.
	// Default: true
	Color bool `mapstructure:"color"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// Stories are stored as files under [DataDir], so state survives between
// invocations without any external service.
func DefaultConfig() *Config {
	dataDir := DataDir()
	return &Config{
		CommandPrefix: "advpal",
		Channel:       "default",
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     filepath.Join(dataDir, "channels"),
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "advpal:story:",
			},
			SQLite: SQLiteConfig{
				Path: filepath.Join(dataDir, "advpal.db"),
			},
		},
		Fetch: FetchConfig{
			Timeout:  10 * time.Second,
			MaxBytes: 1 << 20,
		},
		Log: LogConfig{
			Level:    "warn",
			Encoding: "console",
		},
		Render: RenderConfig{
			Width: 72,
			Color: true,
		},
	}
}

// DataDir returns the directory advpal keeps its stores in by default:
// ~/.local/share/advpal, or ./.advpal when the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".advpal"
	}
	return filepath.Join(home, ".local", "share", "advpal")
}
