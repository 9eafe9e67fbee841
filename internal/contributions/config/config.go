// Package config loads the service configuration from a YAML file, with
// every key overridable through an environment variable of the same name.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is the configuration file used when CONFIG_FILE is not set.
var DefaultPath = filepath.Join("internal", "contributions", "config", "config.yaml")

type Config struct {
	GRPCPort int `mapstructure:"GRPC_PORT"`
	HTTPPort int `mapstructure:"HTTP_PORT"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBPath     string `mapstructure:"DB_PATH"`

	// ConvenioReference is "hard" (worker years need a convenio row) or "soft".
	ConvenioReference string `mapstructure:"CONVENIO_REFERENCE"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	Topic        string   `mapstructure:"TOPIC"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	ValkeyAddr string        `mapstructure:"VALKEY_ADDR"`
	CacheTTL   time.Duration `mapstructure:"CACHE_TTL"`

	// SeedFile, when set, is applied at startup.
	SeedFile string `mapstructure:"SEED_FILE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GRPC_PORT", 50051)
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "contributions")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "contributions.db")
	v.SetDefault("CONVENIO_REFERENCE", "hard")
	v.SetDefault("KAFKA_BROKERS", []string{})
	v.SetDefault("TOPIC", "contributions.changes")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("VALKEY_ADDR", "")
	v.SetDefault("CACHE_TTL", 10*time.Minute)
	v.SetDefault("SEED_FILE", "")
}

// Load reads path (or DefaultPath when empty) and applies environment
// overrides. A missing default file is not an error; a missing explicit
// file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	switch c.ConvenioReference {
	case "hard", "soft":
	default:
		return fmt.Errorf("CONVENIO_REFERENCE must be hard or soft, got %q", c.ConvenioReference)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}
