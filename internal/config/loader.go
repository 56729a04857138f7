package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "ADVPAL"

// ConfigPathEnv names the environment variable holding an explicit config file path.
const ConfigPathEnv = EnvPrefix + "_CONFIG_PATH"

// Loader loads a [Config] through Viper.
//
// Every key of [DefaultConfig] is registered as a Viper default, so each one
// can be overridden by an environment variable named after its path:
// store.redis.addr becomes ADVPAL_STORE_REDIS_ADDR.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a [Loader] with defaults and environment bindings applied.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("command_prefix", cfg.CommandPrefix)
	v.SetDefault("channel", cfg.Channel)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.dir", cfg.Store.Dir)
	v.SetDefault("store.redis.addr", cfg.Store.Redis.Addr)
	v.SetDefault("store.redis.password", cfg.Store.Redis.Password)
	v.SetDefault("store.redis.db", cfg.Store.Redis.DB)
	v.SetDefault("store.redis.key_prefix", cfg.Store.Redis.KeyPrefix)
	v.SetDefault("store.sqlite.path", cfg.Store.SQLite.Path)
	v.SetDefault("fetch.timeout", cfg.Fetch.Timeout)
	v.SetDefault("fetch.max_bytes", cfg.Fetch.MaxBytes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.encoding", cfg.Log.Encoding)
	v.SetDefault("render.width", cfg.Render.Width)
	v.SetDefault("render.color", cfg.Render.Color)
}

// Load resolves configuration from the standard locations.
//
// A .env file in the working directory is loaded into the environment first;
// a missing .env is not an error. See the package documentation for the
// search order.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithPath("")
}

// LoadWithPath is [Loader.Load] with an explicit config file, as given by
// the --config flag. An empty path falls back to the normal search.
func (l *Loader) LoadWithPath(path string) (*Config, error) {
	_ = godotenv.Load()

	if path != "" {
		return l.LoadFromFile(path)
	}
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		return l.LoadFromFile(envPath)
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return l.LoadFromFile(candidate)
		}
	}

	return l.unmarshal()
}

// LoadFromFile reads configuration from path. The format is taken from the
// file extension and defaults to YAML.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		l.v.SetConfigType(ext)
	}
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Store.Dir = expandTilde(cfg.Store.Dir)
	cfg.Store.SQLite.Path = expandTilde(cfg.Store.SQLite.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q check", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ConfigDir returns the platform-standard advpal configuration directory.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "advpal"), nil
}

// DefaultConfigPath returns the path of the user-level config file.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the configuration directory if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteDefaultFile writes the default configuration as YAML to path, or to
// [DefaultConfigPath] when path is empty, creating missing directories.
// It returns the path written. An existing file is never overwritten; in
// that case the error wraps [viper.ConfigFileAlreadyExistsError].
func WriteDefaultFile(path string) (string, error) {
	if path == "" {
		if err := EnsureConfigDir(); err != nil {
			return "", err
		}
		p, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = p
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.Set("fetch.timeout", DefaultConfig().Fetch.Timeout.String())
	if err := v.SafeWriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return path, nil
}

func searchPaths() []string {
	var paths []string
	if path, err := DefaultConfigPath(); err == nil {
		paths = append(paths, path)
	}
	return append(paths, "advpal.yaml")
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
