package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/harun/lawnmower/internal/config"
	"github.com/harun/lawnmower/internal/logger"
	"github.com/harun/lawnmower/internal/observability"
	"github.com/harun/lawnmower/internal/tracing"
	"github.com/harun/lawnmower/pkg/mediator"
	"github.com/harun/lawnmower/pkg/simulation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// environment is what every command that does work needs: the loaded
// config plus the logger, audit journal and tracer it implies.
type environment struct {
	cfg    *config.Config
	logger *logger.Logger
}

func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		if err := config.NewValidator().ValidateLogLevel(logLevel); err != nil {
			return nil, err
		}
		cfg.Logging.Level = logLevel
	}

	l, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  cfg.Logging.Pretty,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Logging.AuditFile != "" {
		if err := observability.InitAuditLogger(cfg.Logging.AuditFile); err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("failed to open audit file: %w", err)
		}
	}

	if cfg.Tracing.Enabled {
		err := tracing.InitOpenTelemetry(context.Background(), tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
			Exporter:    cfg.Tracing.Exporter,
			Writer:      cmd.ErrOrStderr(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("OpenTelemetry disabled")
		}
	}

	if cfg.Metrics.Enabled {
		observability.EnsureRegistered()
	}

	return &environment{cfg: cfg, logger: l}, nil
}

func (e *environment) close() {
	if e.cfg.Tracing.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
			log.Warn().Err(err).Msg("OpenTelemetry shutdown failed")
		}
	}
	observability.SetAuditWriter(io.Discard)
	_ = e.logger.Close()
}

// runner builds a simulation runner from the simulation config section
func (e *environment) runner() *simulation.Runner {
	sim := e.cfg.Simulation
	return simulation.NewRunner(simulation.Config{
		PoolSize: sim.PoolSize,
		Mediator: mediator.Config{
			MaxWaitRounds:      sim.MaxWaitRounds,
			WaitTimeout:        sim.WaitTimeout(),
			StrictRegistration: sim.StrictRegistration,
		},
		Jitter:          simulation.UniformJitter(sim.JitterMax()),
		SlowTaskWarning: sim.SlowTaskWarning(),
	})
}
