package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/path/to/config.yaml")
	assert.NotNil(t, loader)
	assert.Equal(t, "/path/to/config.yaml", loader.configPath)
}

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file doesn't exist", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
simulation:
  max_wait_rounds: 3
  wait_timeout_ms: 250
  strict_registration: true
server:
  port: 9090
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Simulation.MaxWaitRounds)
		assert.Equal(t, 250, cfg.Simulation.WaitTimeoutMs)
		assert.True(t, cfg.Simulation.StrictRegistration)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("json file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"logging": {"level": "debug"}}`), 0644))

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("LAWNMOWER_SIMULATION_POOL_SIZE", "8")
		t.Setenv("LAWNMOWER_LOGGING_LEVEL", "warn")

		cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()

		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Simulation.PoolSize)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("simulation:\n  max_wait_rounds: 0\n"), 0644))

		_, err := NewLoader(configPath).Load()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_wait_rounds")
	})

	t.Run("malformed file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.json")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid json"), 0644))

		_, err := NewLoader(configPath).Load()

		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "subdir", name)

			cfg := DefaultConfig()
			cfg.Simulation.JitterMaxMs = 15
			cfg.Server.Port = 9999

			require.NoError(t, NewLoader(configPath).Save(cfg))

			loaded, err := NewLoader(configPath).Load()
			require.NoError(t, err)
			assert.Equal(t, 15, loaded.Simulation.JitterMaxMs)
			assert.Equal(t, 9999, loaded.Server.Port)
		})
	}
}

func TestLoaderGetConfigPath(t *testing.T) {
	t.Run("custom path", func(t *testing.T) {
		assert.Equal(t, "/custom/path/config.yaml", NewLoader("/custom/path/config.yaml").GetConfigPath())
	})

	t.Run("default path", func(t *testing.T) {
		path := NewLoader("").GetConfigPath()
		assert.Contains(t, path, ".lawnmower")
	})
}
