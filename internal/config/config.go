package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. RECUR_DATA_DIR.
const EnvPrefix = "RECUR"

type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Backend string        `mapstructure:"backend"`
	Theme   string        `mapstructure:"theme"`
	Tick    time.Duration `mapstructure:"tick"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

type NotifyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Icon    string `mapstructure:"icon"`
	Bell    bool   `mapstructure:"bell"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// CacheConfig names the active offline cache generation. Bumping the name
// retires the previous generation.
type CacheConfig struct {
	Name string `mapstructure:"name"`
}

var defaults = map[string]any{
	"data_dir":       "~/.recur",
	"backend":        "json",
	"theme":          "classic",
	"tick":           "1s",
	"notify.enabled": true,
	"notify.icon":    "icon-192.png",
	"notify.bell":    false,
	"serve.addr":     "127.0.0.1:8787",
	"cache.name":     "recur-v1",
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := decode(newViper())
	return cfg
}

// Load merges defaults, the config file and RECUR_* environment variables.
// An empty path searches the user config dir and the working directory; a
// missing file is not an error unless path was given explicitly.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "recur"))
		}
		v.AddConfigPath(".recur")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return decode(v)
}

// Path returns the default config file location.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".recur", "config.yaml")
	}
	return filepath.Join(dir, "recur", "config.yaml")
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = ExpandHome(cfg.DataDir)
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	return &cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
