// Package config loads the settings of the avatar service. Values are layered:
// built-in defaults, then an optional YAML file, then an optional .env file and
// finally AVATAR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AVATAR_"

type (
	Config struct {
		Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
		Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
		Gravatar GravatarConfig `yaml:"gravatar" envPrefix:"GRAVATAR_"`
		Store    StoreConfig    `yaml:"store" envPrefix:"STORE_"`
		Files    FilesConfig    `yaml:"files" envPrefix:"FILES_"`
		Icons    IconsConfig    `yaml:"icons" envPrefix:"ICONS_"`
	}

	ServerConfig struct {
		Addr         string        `yaml:"addr" env:"ADDR"`
		Mode         string        `yaml:"mode" env:"MODE"`
		ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
		WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	}

	LogConfig struct {
		Level string `yaml:"level" env:"LEVEL"`
		Dev   bool   `yaml:"dev" env:"DEV"`
	}

	GravatarConfig struct {
		Endpoint string        `yaml:"endpoint" env:"ENDPOINT"`
		Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
		// Rate limits the probes per second; zero disables the limit.
		Rate  float64 `yaml:"rate" env:"RATE"`
		Burst int     `yaml:"burst" env:"BURST"`
		// RemoteURL is the display URL template of confirmed avatars,
		// with {hash} and {size} placeholders.
		RemoteURL string `yaml:"remote_url" env:"REMOTE_URL"`
	}

	StoreConfig struct {
		// Driver is "pebble" or "memory".
		Driver        string        `yaml:"driver" env:"DRIVER"`
		Path          string        `yaml:"path" env:"PATH"`
		PurgeInterval time.Duration `yaml:"purge_interval" env:"PURGE_INTERVAL"`
	}

	FilesConfig struct {
		// Driver is "local" or "minio".
		Driver  string      `yaml:"driver" env:"DRIVER"`
		Dir     string      `yaml:"dir" env:"DIR"`
		BaseURL string      `yaml:"base_url" env:"BASE_URL"`
		Minio   MinioConfig `yaml:"minio" envPrefix:"MINIO_"`
	}

	MinioConfig struct {
		Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
		AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
		Bucket    string `yaml:"bucket" env:"BUCKET"`
		UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
		BaseURL   string `yaml:"base_url" env:"BASE_URL"`
	}

	IconsConfig struct {
		Default   string `yaml:"default" env:"DEFAULT"`
		Size      int    `yaml:"size" env:"SIZE"`
		PartsDir  string `yaml:"parts_dir" env:"PARTS_DIR"`
		Rasterize bool   `yaml:"rasterize" env:"RASTERIZE"`
	}
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			Mode:         "release",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Gravatar: GravatarConfig{
			Endpoint:  "https://gravatar.com",
			Timeout:   5 * time.Second,
			Burst:     10,
			RemoteURL: "https://secure.gravatar.com/avatar/{hash}?s={size}",
		},
		Store: StoreConfig{
			Driver:        "pebble",
			Path:          "data/validation",
			PurgeInterval: time.Hour,
		},
		Files: FilesConfig{
			Driver:  "local",
			Dir:     "data/icons",
			BaseURL: "/icons",
		},
		Icons: IconsConfig{
			Default: "rings",
			Size:    80,
		},
	}
}

// Load reads the configuration. Both paths are optional; a missing .env
// file is not an error, a missing config file is.
func Load(configPath, envPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file not found: %s", configPath)
			}
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("invalid env file %s: %w", envPath, err)
		}
	}

	if err := env.Parse(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "pebble", "memory":
	default:
		return fmt.Errorf("unsupported store driver: %q", c.Store.Driver)
	}
	switch c.Files.Driver {
	case "local":
	case "minio":
		if c.Files.Minio.Endpoint == "" || c.Files.Minio.Bucket == "" {
			return errors.New("minio file cache requires an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unsupported file cache driver: %q", c.Files.Driver)
	}
	if c.Icons.Size <= 0 {
		return fmt.Errorf("invalid icon size: %d", c.Icons.Size)
	}
	if c.Gravatar.Rate < 0 || c.Gravatar.Burst < 0 {
		return errors.New("probe rate and burst must not be negative")
	}
	return nil
}
