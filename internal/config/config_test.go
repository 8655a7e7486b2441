package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/delaycast/artifact"
	"github.com/YuminosukeSato/delaycast/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, artifact.DefaultPath, cfg.Model.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delaycast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":9090"
  requestTimeout: 2s
model:
  path: /var/lib/delaycast/model.gob
  watch: false
logging:
  level: debug
  backend: zerolog
  json: true
database:
  url: postgres://flights@localhost/flights
  maxConns: 8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/var/lib/delaycast/model.gob", cfg.Model.Path)
	assert.False(t, cfg.Model.Watch)
	assert.Equal(t, "zerolog", cfg.Logging.Backend)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, int32(8), cfg.Database.MaxConns)

	opts := cfg.LogOptions()
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "zerolog", opts.Backend)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delaycast.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o644))

	t.Setenv("DELAYCAST_SERVER_ADDRESS", ":7000")
	t.Setenv("DELAYCAST_MODEL_PATH", "/tmp/m.gob")
	t.Setenv("DELAYCAST_MODEL_WATCH", "false")
	t.Setenv("DELAYCAST_LOG_FORMAT", "json")
	t.Setenv("DELAYCAST_REQUEST_TIMEOUT", "750ms")
	t.Setenv("DELAYCAST_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://fallback")
	t.Setenv("DELAYCAST_TRAINING_LIMIT", "500")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, "/tmp/m.gob", cfg.Model.Path)
	assert.False(t, cfg.Model.Watch)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, 750*time.Millisecond, cfg.Server.RequestTimeout)
	assert.Equal(t, "postgres://fallback", cfg.Database.URL)
	assert.Equal(t, 500, cfg.Database.TrainingLimit)
}

func TestLoadFromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delaycast.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  version: \"2.1.0\"\n"), 0o644))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", cfg.Model.Version)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown backend", func(c *Config) { c.Logging.Backend = "zap" }},
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"negative shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = -time.Second }},
		{"empty model path", func(c *Config) { c.Model.Path = "" }},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"zero max conns", func(c *Config) { c.Database.MaxConns = 0 }},
		{"zero training limit", func(c *Config) { c.Database.TrainingLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err))
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DELAYCAST_DOTENV_PROBE=from-file\n"), 0o644))

	t.Setenv("DELAYCAST_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("DELAYCAST_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("DELAYCAST_DOTENV_PROBE"))
}

func TestSampleConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "delaycast.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, "v1.0", cfg.Model.Version)
}
