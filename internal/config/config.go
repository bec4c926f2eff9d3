package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const devSecret = "supersecret-dev-key"

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	HTTPAddr string `mapstructure:"http_addr"`

	DB        DBConfig        `mapstructure:"db"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Integrity IntegrityConfig `mapstructure:"integrity"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite|postgres|memory
	DSN    string `mapstructure:"dsn"`
}

type CorpusConfig struct {
	Path string `mapstructure:"path"` // empty uses the bundled corpus
}

type IntegrityConfig struct {
	MaxViolations  int           `mapstructure:"max_violations"`
	CoalesceWindow time.Duration `mapstructure:"coalesce_window"`
}

type AuthConfig struct {
	Secret        string        `mapstructure:"secret"`
	EntryCodeHash string        `mapstructure:"entry_code_hash"` // bcrypt; empty disables the gate
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("corpus.path", "")
	v.SetDefault("integrity.max_violations", 3)
	v.SetDefault("integrity.coalesce_window", "0s")
	v.SetDefault("auth.secret", devSecret)
	v.SetDefault("auth.entry_code_hash", "")
	v.SetDefault("auth.token_ttl", "4h")
	v.SetDefault("cors.origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.enabled", true)
}

// Load reads config.yaml from path (a directory, or a .yaml/.yml file) when
// present, then QUIZ_* environment variables, over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		v.SetConfigFile(path)
	default:
		if path != "" {
			v.AddConfigPath(path)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORS.Origins = trimAll(cfg.CORS.Origins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.DB.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	if c.DB.Driver == "postgres" && c.DB.DSN == "" {
		return errors.New("db.dsn is required for postgres")
	}
	if c.Integrity.MaxViolations < 1 {
		return fmt.Errorf("integrity.max_violations must be at least 1, got %d", c.Integrity.MaxViolations)
	}
	if c.Integrity.CoalesceWindow < 0 {
		return errors.New("integrity.coalesce_window must not be negative")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Mode == ModeOnline && (len(c.Auth.Secret) < 32 || c.Auth.Secret == devSecret) {
		return fmt.Errorf("auth secret is too short (%d chars), must be at least 32 characters in online mode", len(c.Auth.Secret))
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
