package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. LAWNMOWER_SIMULATION_POOL_SIZE
const EnvPrefix = "LAWNMOWER"

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load reads the config file, applies environment overrides and validates
// the result. A missing file is not an error: defaults plus environment
// are used.
func (l *Loader) Load() (*Config, error) {
	configPath := l.GetConfigPath()

	v := l.newViper(configPath)
	setDefaults(v, DefaultConfig())

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration, creating the directory if needed. The
// format follows the file extension.
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("no config path available")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := l.newViper(configPath)
	v.Set("simulation", cfg.Simulation)
	v.Set("input", cfg.Input)
	v.Set("logging", cfg.Logging)
	v.Set("server", cfg.Server)
	v.Set("metrics", cfg.Metrics)
	v.Set("tracing", cfg.Tracing)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lawnmower", "config.yaml")
}

func (l *Loader) newViper(configPath string) *viper.Viper {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType(configType(configPath))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// setDefaults registers every key so AutomaticEnv can override it even
// when the file does not mention it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("simulation.max_wait_rounds", cfg.Simulation.MaxWaitRounds)
	v.SetDefault("simulation.wait_timeout_ms", cfg.Simulation.WaitTimeoutMs)
	v.SetDefault("simulation.pool_size", cfg.Simulation.PoolSize)
	v.SetDefault("simulation.strict_registration", cfg.Simulation.StrictRegistration)
	v.SetDefault("simulation.jitter_max_ms", cfg.Simulation.JitterMaxMs)
	v.SetDefault("simulation.slow_task_warning_ms", cfg.Simulation.SlowTaskWarningMs)

	v.SetDefault("input.x_min", cfg.Input.XMin)
	v.SetDefault("input.y_min", cfg.Input.YMin)
	v.SetDefault("input.watch_debounce_ms", cfg.Input.WatchDebounceMs)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("logging.audit_file", cfg.Logging.AuditFile)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.max_mowers", cfg.Server.MaxMowers)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)

	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.service_name", cfg.Tracing.ServiceName)
	v.SetDefault("tracing.sample_ratio", cfg.Tracing.SampleRatio)
	v.SetDefault("tracing.exporter", cfg.Tracing.Exporter)
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
