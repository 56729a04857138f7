package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at empty temporary directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv(ConfigPathEnv, "")
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(originalWd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "advpal", cfg.CommandPrefix)
	assert.Equal(t, "default", cfg.Channel)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Contains(t, cfg.Store.Dir, "advpal")
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "advpal:story:", cfg.Store.Redis.KeyPrefix)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, int64(1048576), cfg.Fetch.MaxBytes)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, 72, cfg.Render.Width)
	assert.True(t, cfg.Render.Color)
	assert.NoError(t, cfg.Validate())
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
	assert.NotNil(t, loader.v)
}

func TestLoader_Load_DefaultsWithNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, "advpal", cfg.CommandPrefix)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
}

func TestLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advpal.yaml")
	writeFile(t, path, `
channel: tavern
store:
  backend: sqlite
  sqlite:
    path: /tmp/stories.db
fetch:
  timeout: 3s
render:
  color: false
`)

	cfg, err := NewLoader().LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "tavern", cfg.Channel)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/stories.db", cfg.Store.SQLite.Path)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Render.Color)
	assert.Equal(t, "advpal", cfg.CommandPrefix, "unset keys keep defaults")
}

func TestLoader_LoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"store": {"backend": "memory"}}`)

	cfg, err := NewLoader().LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestLoader_LoadFromFile_NonExistent(t *testing.T) {
	_, err := NewLoader().LoadFromFile("/nonexistent/path/config.yaml")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoader_LoadFromFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	writeFile(t, path, "store: [unclosed\n  backend: file\n")

	_, err := NewLoader().LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoader_Load_WithConfigPathEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom", "advpal.yaml")
	writeFile(t, path, "channel: from-file\n")
	t.Setenv(ConfigPathEnv, path)

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Channel)
}

func TestLoader_Load_EnvOverridesTakePrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "advpal.yaml")
	writeFile(t, path, "store:\n  backend: sqlite\n  redis:\n    db: 2\n")
	t.Setenv(ConfigPathEnv, path)
	t.Setenv("ADVPAL_STORE_BACKEND", "redis")
	t.Setenv("ADVPAL_STORE_REDIS_ADDR", "cache:6380")

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6380", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
}

func TestLoader_LoadWithPath_FlagBeatsEnv(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, "env.yaml")
	flagPath := filepath.Join(dir, "flag.yaml")
	writeFile(t, envPath, "channel: from-env-path\n")
	writeFile(t, flagPath, "channel: from-flag\n")
	t.Setenv(ConfigPathEnv, envPath)

	cfg, err := NewLoader().LoadWithPath(flagPath)

	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Channel)
}

func TestLoader_Load_WorkingDirectoryFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "advpal.yaml"), "command_prefix: quest\n")

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, "quest", cfg.CommandPrefix)
}

func TestLoader_Load_UserConfigDirWins(t *testing.T) {
	dir := isolate(t)
	userPath, err := DefaultConfigPath()
	require.NoError(t, err)
	writeFile(t, userPath, "channel: user\n")
	writeFile(t, filepath.Join(dir, "advpal.yaml"), "channel: local\n")

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, "user", cfg.Channel)
}

func TestLoader_Load_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "ADVPAL_CHANNEL=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("ADVPAL_CHANNEL") })

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Channel)
}

func TestLoader_Load_ExpandsTilde(t *testing.T) {
	dir := isolate(t)
	t.Setenv("ADVPAL_STORE_DIR", "~/stories")

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "home", "stories"), cfg.Store.Dir)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{name: "unknown backend", modify: func(c *Config) { c.Store.Backend = "etcd" }, field: "Backend"},
		{name: "file backend without dir", modify: func(c *Config) { c.Store.Dir = "" }, field: "Dir"},
		{name: "empty prefix", modify: func(c *Config) { c.CommandPrefix = "" }, field: "CommandPrefix"},
		{name: "prefix with spaces", modify: func(c *Config) { c.CommandPrefix = "two words" }, field: "CommandPrefix"},
		{name: "zero timeout", modify: func(c *Config) { c.Fetch.Timeout = 0 }, field: "Timeout"},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "loud" }, field: "Level"},
		{name: "narrow render", modify: func(c *Config) { c.Render.Width = 5 }, field: "Width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfig_Validate_MemoryBackendNeedsNoDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Backend = BackendMemory
	cfg.Store.Dir = ""

	assert.NoError(t, cfg.Validate())
}

func TestWriteDefaultFile(t *testing.T) {
	isolate(t)

	path, err := WriteDefaultFile("")
	require.NoError(t, err)

	want, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, want, path)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg, "the written file loads back as the defaults")
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
}

func TestWriteDefaultFile_KeepsExistingFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom", "advpal.yaml")
	writeFile(t, path, "channel: kept\n")

	_, err := WriteDefaultFile(path)

	var exists viper.ConfigFileAlreadyExistsError
	require.ErrorAs(t, err, &exists)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "channel: kept\n", string(data))
}

func TestWriteDefaultFile_ExplicitPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "advpal.yaml")

	got, err := WriteDefaultFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	cfg, err := NewLoader().LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "advpal", cfg.CommandPrefix)
}

func TestConfigDir(t *testing.T) {
	configDir, err := ConfigDir()
	require.NoError(t, err)
	assert.Contains(t, configDir, "advpal")
}

func TestDefaultConfigPath(t *testing.T) {
	configPath, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Contains(t, configPath, "advpal")
	assert.Contains(t, configPath, "config.yaml")
}

func TestEnsureConfigDir(t *testing.T) {
	isolate(t)

	require.NoError(t, EnsureConfigDir())

	dir, err := ConfigDir()
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
