package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigEnv points at an explicit config file.
const ConfigEnv = "AMPED_CONFIG"

// Config holds application configuration.
type Config struct {
	Datastore DatastoreConfig
	Auth      AuthConfig
	Log       LogConfig
	UI        UIConfig
}

// DatastoreConfig selects and locates the todo store.
type DatastoreConfig struct {
	Driver string // "sqlite" | "json"
	Path   string
}

// AuthConfig holds account and session settings.
type AuthConfig struct {
	Dir        string
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// LogConfig holds logging settings. An empty File discards logs.
type LogConfig struct {
	File  string
	Level string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme string
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".amped")
}

// DefaultPath is where Load looks when AMPED_CONFIG is unset.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "amped", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix AMPED_.
// path overrides AMPED_CONFIG when non-empty.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("datastore.driver", "sqlite")
	v.SetDefault("datastore.path", filepath.Join(dataDir(), "amped.db"))
	v.SetDefault("auth.dir", dataDir())
	v.SetDefault("auth.session_ttl", "720h")
	v.SetDefault("log.file", filepath.Join(dataDir(), "amped.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("ui.theme", "classic")

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("AMPED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the rest of the program cannot act on.
func (c Config) Validate() error {
	switch strings.ToLower(c.Datastore.Driver) {
	case "sqlite", "json":
	default:
		return fmt.Errorf("config: unknown datastore.driver %q (want sqlite or json)", c.Datastore.Driver)
	}
	if strings.TrimSpace(c.Datastore.Path) == "" {
		return fmt.Errorf("config: datastore.path is empty")
	}
	if strings.TrimSpace(c.Auth.Dir) == "" {
		return fmt.Errorf("config: auth.dir is empty")
	}
	if c.Auth.SessionTTL < 0 {
		return fmt.Errorf("config: auth.session_ttl is negative")
	}
	return nil
}

// Resolve returns the config file in effect: path, then AMPED_CONFIG, then
// DefaultPath.
func Resolve(path string) string {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		path = DefaultPath()
	}
	return path
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(path string, cfg Config) error {
	path = Resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("datastore.driver", cfg.Datastore.Driver)
	v.Set("datastore.path", cfg.Datastore.Path)
	v.Set("auth.dir", cfg.Auth.Dir)
	v.Set("auth.session_ttl", cfg.Auth.SessionTTL.String())
	v.Set("log.file", cfg.Log.File)
	v.Set("log.level", cfg.Log.Level)
	v.Set("ui.theme", cfg.UI.Theme)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
