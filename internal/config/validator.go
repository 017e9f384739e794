package config

import (
	"fmt"
	"strings"
)

const (
	maxWaitRoundsLimit = 100
	maxWaitTimeoutMs   = 10 * 60 * 1000
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateWaitPolicy validates the mediator wait budget
func (v *Validator) ValidateWaitPolicy(rounds, timeoutMs int) error {
	if rounds <= 0 || rounds > maxWaitRoundsLimit {
		return fmt.Errorf("max_wait_rounds must be between 1 and %d, got %d", maxWaitRoundsLimit, rounds)
	}
	if timeoutMs <= 0 || timeoutMs > maxWaitTimeoutMs {
		return fmt.Errorf("wait_timeout_ms must be between 1 and %d, got %d", maxWaitTimeoutMs, timeoutMs)
	}
	return nil
}

// ValidateNonNegative rejects negative values for the named setting
func (v *Validator) ValidateNonNegative(name string, value int) error {
	if value < 0 {
		return fmt.Errorf("%s must be >= 0, got %d", name, value)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidatePort validates a TCP port
func (v *Validator) ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateTracing validates the sampler ratio and exporter name
func (v *Validator) ValidateTracing(ratio float64, exporter string) error {
	if ratio < 0 || ratio > 1 {
		return fmt.Errorf("sample_ratio must be between 0 and 1, got %g", ratio)
	}
	switch exporter {
	case "none", "stdout":
		return nil
	}
	return fmt.Errorf("invalid exporter: %q (must be one of: none, stdout)", exporter)
}

// ValidateConfig performs comprehensive validation and reports every problem
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errs []error

	if err := v.ValidateWaitPolicy(cfg.Simulation.MaxWaitRounds, cfg.Simulation.WaitTimeoutMs); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}
	for name, value := range map[string]int{
		"simulation.pool_size":            cfg.Simulation.PoolSize,
		"simulation.jitter_max_ms":        cfg.Simulation.JitterMaxMs,
		"simulation.slow_task_warning_ms": cfg.Simulation.SlowTaskWarningMs,
		"input.watch_debounce_ms":         cfg.Input.WatchDebounceMs,
	} {
		if err := v.ValidateNonNegative(name, value); err != nil {
			errs = append(errs, err)
		}
	}
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := v.ValidateTracing(cfg.Tracing.SampleRatio, cfg.Tracing.Exporter); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	return errs
}
