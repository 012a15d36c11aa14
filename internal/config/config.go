package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SKILLTRACKER_JWT_SECRET.
const EnvPrefix = "SKILLTRACKER"

type Config struct {
	ListenAddr   string          `toml:"listen_addr" mapstructure:"listen_addr"`
	APIPrefix    string          `toml:"api_prefix" mapstructure:"api_prefix"`
	DatabasePath string          `toml:"database_path" mapstructure:"database_path"`
	JWTSecret    string          `toml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL     string          `toml:"token_ttl" mapstructure:"token_ttl"`
	LogLevel     string          `toml:"log_level" mapstructure:"log_level"`
	LogFormat    string          `toml:"log_format" mapstructure:"log_format"`
	Telemetry    TelemetryConfig `toml:"telemetry" mapstructure:"telemetry"`
}

type TelemetryConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`
	// Stdout dumps spans and metrics to stdout.
	Stdout bool `toml:"stdout" mapstructure:"stdout"`
	// Endpoint is an OTLP/HTTP metrics collector, e.g. localhost:4318.
	Endpoint string `toml:"endpoint" mapstructure:"endpoint"`
}

func DefaultConfig() *Config {
	dbPath, _ := DatabasePath()
	return &Config{
		ListenAddr:   ":3000",
		APIPrefix:    "/api",
		DatabasePath: dbPath,
		TokenTTL:     "720h",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

func SkillTrackerDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".skilltracker"), nil
}

func ConfigPath() (string, error) {
	dir, err := SkillTrackerDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func DatabasePath() (string, error) {
	dir, err := SkillTrackerDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "db", "skilltracker.sqlite"), nil
}

func EnsureDirectories() error {
	dir, err := SkillTrackerDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(dir, "db"), 0755)
}

// Load reads ~/.skilltracker/config.toml, creating it with defaults and a
// fresh signing secret on first run. Environment variables override file
// values.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := EnsureDirectories(); err != nil {
			return nil, err
		}
		cfg := DefaultConfig()
		if cfg.JWTSecret, err = newSecret(); err != nil {
			return nil, err
		}
		if err := Save(cfg); err != nil {
			return nil, err
		}
	}

	return loadFile(configPath)
}

func loadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.DatabasePath = expandPath(cfg.DatabasePath)

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("api_prefix", d.APIPrefix)
	v.SetDefault("database_path", d.DatabasePath)
	v.SetDefault("jwt_secret", d.JWTSecret)
	v.SetDefault("token_ttl", d.TokenTTL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.stdout", d.Telemetry.Stdout)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
}

func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(configPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is empty (set it in config.toml or %s_JWT_SECRET)", EnvPrefix)
	}
	if _, err := c.TokenDuration(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q: want text or json", c.LogFormat)
	}
	return nil
}

func (c *Config) TokenDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("token_ttl %q: %w", c.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token_ttl %q: must be positive", c.TokenTTL)
	}
	return d, nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
