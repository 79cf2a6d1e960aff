package config

import (
	"strings"
	"time"

	"shoptrends/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Session   SessionConfig   `mapstructure:"session"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// DataConfig points at the dataset source. File may be a local path (.csv/.xlsx),
// an s3:// or gs:// object, or a postgres:// / sqlite:// DSN paired with Table.
type DataConfig struct {
	File       string `mapstructure:"file"`
	Table      string `mapstructure:"table"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	// Synthetic rows generated when File is empty (demo mode)
	SyntheticRows int   `mapstructure:"synthetic_rows"`
	Seed          int64 `mapstructure:"seed"`
}

// SessionConfig holds browser session settings
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// CacheConfig selects the shared output cache backend
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"` // memory | redis | none
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	MaxItems int           `mapstructure:"max_items"`
}

// OpsConfig holds the health/pprof side server settings
type OpsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// TelemetryConfig holds OpenTelemetry trace export settings
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"server.port":         "PORT",
	"server.gin_mode":     "GIN_MODE",
	"data.file":           "DATA_FILE",
	"data.table":          "DATA_TABLE",
	"data.synthetic_rows": "SYNTHETIC_ROWS",
	"data.seed":           "DATA_SEED",
	"session.ttl":         "SESSION_TTL",
	"cache.backend":       "CACHE_BACKEND",
	"cache.redis_url":     "REDIS_URL",
	"cache.ttl":           "CACHE_TTL",
	"cache.max_items":     "CACHE_MAX_ITEMS",
	"ops.enabled":         "OPS_ENABLED",
	"ops.port":            "OPS_PORT",
	"telemetry.enabled":   "OTEL_ENABLED",
	"telemetry.endpoint":  "OTEL_ENDPOINT",
	"telemetry.insecure":  "OTEL_INSECURE",
	"log_level":           "LOG_LEVEL",
}

// Load reads .env (if present), an optional config file named by CONFIG_FILE, and the
// environment, then validates the result. Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadWith(viper.New())
}

// LoadWith loads configuration through the supplied viper instance
func LoadWith(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", env)
		}
	}

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, errors.Wrap(err, "failed to bind CONFIG_FILE")
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("data.file", "")
	v.SetDefault("data.table", "shopping_trends")
	v.SetDefault("data.s3_endpoint", "")
	v.SetDefault("data.synthetic_rows", 3900)
	v.SetDefault("data.seed", 42)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.max_items", 2048)
	v.SetDefault("ops.enabled", false)
	v.SetDefault("ops.port", "6060")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("log_level", "INFO")
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	switch config.Cache.Backend {
	case "memory", "none":
	case "redis":
		if config.Cache.RedisURL == "" {
			return errors.ConfigInvalid("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return errors.ConfigInvalid("unknown cache backend: " + config.Cache.Backend)
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("session TTL must be positive")
	}
	if config.Data.File == "" && config.Data.SyntheticRows <= 0 {
		return errors.ConfigInvalid("DATA_FILE or a positive SYNTHETIC_ROWS is required")
	}
	if config.Ops.Enabled && config.Ops.Port == "" {
		return errors.ConfigInvalid("ops port is required when the ops server is enabled")
	}
	return nil
}
