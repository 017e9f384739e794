package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the lawnmower configuration
type Config struct {
	Simulation SimulationConfig `json:"simulation" mapstructure:"simulation" yaml:"simulation"`
	Input      InputConfig      `json:"input" mapstructure:"input" yaml:"input"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging" yaml:"logging"`
	Server     ServerConfig     `json:"server" mapstructure:"server" yaml:"server"`
	Metrics    MetricsConfig    `json:"metrics" mapstructure:"metrics" yaml:"metrics"`
	Tracing    TracingConfig    `json:"tracing" mapstructure:"tracing" yaml:"tracing"`
}

// SimulationConfig tunes the mediator wait policy and the runner
type SimulationConfig struct {
	MaxWaitRounds      int  `json:"max_wait_rounds" mapstructure:"max_wait_rounds" yaml:"max_wait_rounds"`
	WaitTimeoutMs      int  `json:"wait_timeout_ms" mapstructure:"wait_timeout_ms" yaml:"wait_timeout_ms"`
	PoolSize           int  `json:"pool_size" mapstructure:"pool_size" yaml:"pool_size"`
	StrictRegistration bool `json:"strict_registration" mapstructure:"strict_registration" yaml:"strict_registration"`
	JitterMaxMs        int  `json:"jitter_max_ms" mapstructure:"jitter_max_ms" yaml:"jitter_max_ms"`
	SlowTaskWarningMs  int  `json:"slow_task_warning_ms" mapstructure:"slow_task_warning_ms" yaml:"slow_task_warning_ms"`
}

// WaitTimeout returns the per-round wait as a duration
func (s SimulationConfig) WaitTimeout() time.Duration {
	return time.Duration(s.WaitTimeoutMs) * time.Millisecond
}

// JitterMax returns the jitter upper bound as a duration
func (s SimulationConfig) JitterMax() time.Duration {
	return time.Duration(s.JitterMaxMs) * time.Millisecond
}

// SlowTaskWarning returns the queue wait warning threshold as a duration
func (s SimulationConfig) SlowTaskWarning() time.Duration {
	return time.Duration(s.SlowTaskWarningMs) * time.Millisecond
}

// InputConfig holds line-format parsing options
type InputConfig struct {
	XMin int `json:"x_min" mapstructure:"x_min" yaml:"x_min"`
	YMin int `json:"y_min" mapstructure:"y_min" yaml:"y_min"`
	// WatchDebounceMs delays re-runs in watch mode until writes settle
	WatchDebounceMs int `json:"watch_debounce_ms" mapstructure:"watch_debounce_ms" yaml:"watch_debounce_ms"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`
	File   string `json:"file" mapstructure:"file" yaml:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty" yaml:"pretty"`
	// AuditFile receives one JSON line per simulation run when set
	AuditFile string `json:"audit_file" mapstructure:"audit_file" yaml:"audit_file"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host" yaml:"host"`
	Port int    `json:"port" mapstructure:"port" yaml:"port"`
	// MaxMowers caps the mowers accepted in one API request
	MaxMowers int `json:"max_mowers" mapstructure:"max_mowers" yaml:"max_mowers"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type MetricsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
}

type TracingConfig struct {
	Enabled     bool    `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	ServiceName string  `json:"service_name" mapstructure:"service_name" yaml:"service_name"`
	SampleRatio float64 `json:"sample_ratio" mapstructure:"sample_ratio" yaml:"sample_ratio"`
	// Exporter is "none" (spans are sampled but dropped) or "stdout"
	Exporter string `json:"exporter" mapstructure:"exporter" yaml:"exporter"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			MaxWaitRounds:     2,
			WaitTimeoutMs:     5000,
			PoolSize:          0,
			SlowTaskWarningMs: 2000,
		},
		Input: InputConfig{
			WatchDebounceMs: 200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      8080,
			MaxMowers: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "lawnmower",
			SampleRatio: 1,
			Exporter:    "stdout",
		},
	}
}

func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()

	if err := v.ValidateWaitPolicy(c.Simulation.MaxWaitRounds, c.Simulation.WaitTimeoutMs); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := v.ValidateNonNegative("simulation.pool_size", c.Simulation.PoolSize); err != nil {
		return err
	}
	if err := v.ValidateNonNegative("simulation.jitter_max_ms", c.Simulation.JitterMaxMs); err != nil {
		return err
	}
	if err := v.ValidateNonNegative("simulation.slow_task_warning_ms", c.Simulation.SlowTaskWarningMs); err != nil {
		return err
	}
	if err := v.ValidateNonNegative("input.watch_debounce_ms", c.Input.WatchDebounceMs); err != nil {
		return err
	}
	if err := v.ValidateLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := v.ValidatePort(c.Server.Port); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if c.Server.MaxMowers <= 0 {
		return fmt.Errorf("server: max_mowers must be positive, got %d", c.Server.MaxMowers)
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing: service_name is required when tracing is enabled")
	}
	if err := v.ValidateTracing(c.Tracing.SampleRatio, c.Tracing.Exporter); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	return nil
}
