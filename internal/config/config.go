// Package config loads delaycast settings from YAML with environment
// overrides.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/delaycast/artifact"
	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
)

// EnvConfigPath names the variable holding the config file path.
const EnvConfigPath = "DELAYCAST_CONFIG"

// Config captures everything the delaycast binaries need to boot.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Model    ModelConfig    `yaml:"model"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// RequestTimeout bounds each fit and predict call.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// ModelConfig locates the artifact.
type ModelConfig struct {
	Path    string `yaml:"path"`
	Watch   bool   `yaml:"watch"`
	Version string `yaml:"version"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	Backend    string `yaml:"backend"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DatabaseConfig configures the training-data source used by delay-train.
type DatabaseConfig struct {
	URL           string        `yaml:"url"`
	MaxConns      int32         `yaml:"maxConns"`
	QueryTimeout  time.Duration `yaml:"queryTimeout"`
	TrainingLimit int           `yaml:"trainingLimit"`
}

// LoadDotEnv loads KEY=VALUE pairs from files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// Load builds a Config from defaults, the YAML file at path (or
// $DELAYCAST_CONFIG when path is empty) and DELAYCAST_* overrides, then
// validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, errors.Wrapf(err, "config file %s not found", path)
			}
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  15 * time.Second,
		},
		Model: ModelConfig{
			Path:    artifact.DefaultPath,
			Watch:   true,
			Version: "v1.0",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Backend:    log.BackendSlog,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Database: DatabaseConfig{
			MaxConns:      4,
			QueryTimeout:  30 * time.Second,
			TrainingLimit: 100000,
		},
	}
}

// Validate rejects settings the binaries cannot run with.
func (c *Config) Validate() error {
	const op = "config.Validate"

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.NewInvalidInputError(op, "logging.level", "unknown level", c.Logging.Level)
	}
	switch c.Logging.Backend {
	case log.BackendSlog, log.BackendZerolog:
	default:
		return errors.NewInvalidInputError(op, "logging.backend", "must be slog or zerolog", c.Logging.Backend)
	}
	if c.Server.Address == "" {
		return errors.NewInvalidInputError(op, "server.address", "must not be empty", nil)
	}

	durations := map[string]time.Duration{
		"server.readTimeout":     c.Server.ReadTimeout,
		"server.writeTimeout":    c.Server.WriteTimeout,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
		"server.requestTimeout":  c.Server.RequestTimeout,
		"database.queryTimeout":  c.Database.QueryTimeout,
	}
	for field, d := range durations {
		if d <= 0 {
			return errors.NewInvalidInputError(op, field, "must be positive", d.String())
		}
	}

	if c.Model.Path == "" {
		return errors.NewInvalidInputError(op, "model.path", "must not be empty", nil)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.NewInvalidInputError(op, "metrics.path", "must start with /", c.Metrics.Path)
	}
	if c.Database.MaxConns <= 0 {
		return errors.NewInvalidInputError(op, "database.maxConns", "must be positive", c.Database.MaxConns)
	}
	if c.Database.TrainingLimit <= 0 {
		return errors.NewInvalidInputError(op, "database.trainingLimit", "must be positive", c.Database.TrainingLimit)
	}
	return nil
}

// LogOptions converts the logging section for log.Setup.
func (c *Config) LogOptions() log.Options {
	return log.Options{
		Level:      c.Logging.Level,
		JSON:       c.Logging.JSON,
		Backend:    c.Logging.Backend,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DELAYCAST_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	setDuration("DELAYCAST_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("DELAYCAST_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("DELAYCAST_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setDuration("DELAYCAST_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)

	if v := os.Getenv("DELAYCAST_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	setBool("DELAYCAST_MODEL_WATCH", &cfg.Model.Watch)
	if v := os.Getenv("DELAYCAST_MODEL_VERSION"); v != "" {
		cfg.Model.Version = v
	}

	if v := os.Getenv("DELAYCAST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DELAYCAST_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
	if v := os.Getenv("DELAYCAST_LOG_BACKEND"); v != "" {
		cfg.Logging.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("DELAYCAST_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	setBool("DELAYCAST_METRICS_ENABLED", &cfg.Metrics.Enabled)
	if v := os.Getenv("DELAYCAST_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if v := os.Getenv("DELAYCAST_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DELAYCAST_DATABASE_MAX_CONNS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Database.MaxConns = int32(n)
		}
	}
	setDuration("DELAYCAST_DATABASE_QUERY_TIMEOUT", &cfg.Database.QueryTimeout)
	if v := os.Getenv("DELAYCAST_TRAINING_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.TrainingLimit = n
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}
