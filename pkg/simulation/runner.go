// Package simulation drives a scenario through the mediator: each mower's
// registration and instructions run in order on its own queue lane, and the
// run reports every mower's final position once all lanes are done.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/harun/lawnmower/internal/observability"
	"github.com/harun/lawnmower/internal/tracing"
	"github.com/harun/lawnmower/pkg/commandqueue"
	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/harun/lawnmower/pkg/mediator"
	"github.com/harun/lawnmower/pkg/mower"
	"github.com/harun/lawnmower/pkg/scenario"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "lawnmower.simulation"

// Coordinator is the part of the mediator the runner drives
type Coordinator interface {
	Register(ctx context.Context, mw *mower.Mower) error
	Dispatch(ctx context.Context, instruction lawn.Instruction, mw *mower.Mower) (lawn.Position, error)
	IsRegistered(mw *mower.Mower) bool
}

// Config configures a Runner
type Config struct {
	// PoolSize is a lower bound on concurrently scheduled mowers; the runner
	// never schedules fewer than all of them at once.
	PoolSize int
	Mediator mediator.Config
	// Jitter delays each mower before registering and before every instruction.
	Jitter JitterFunc
	// SlowTaskWarning logs a warning for mower tasks queued longer than this.
	SlowTaskWarning time.Duration
}

// Runner executes scenarios. It is safe for concurrent use; every run gets
// its own mediator and queue.
type Runner struct {
	cfg    Config
	logger zerolog.Logger
}

// NewRunner creates a runner
func NewRunner(cfg Config) *Runner {
	if cfg.Jitter == nil {
		cfg.Jitter = NoJitter
	}
	return &Runner{
		cfg:    cfg,
		logger: log.Logger.With().Str("component", "simulation").Logger(),
	}
}

type unit struct {
	spec  scenario.MowerSpec
	mower *mower.Mower
}

// Run executes all mowers concurrently, one command queue lane per mower.
// A fatal error from any mower cancels the others and is returned.
func (r *Runner) Run(ctx context.Context, sc scenario.Scenario) (*Report, error) {
	return r.run(ctx, sc, ModeConcurrent)
}

// RunSequential handles the mowers in input order: each one registers and
// replays its whole program before the next one registers.
func (r *Runner) RunSequential(ctx context.Context, sc scenario.Scenario) (*Report, error) {
	return r.run(ctx, sc, ModeSequential)
}

func (r *Runner) run(ctx context.Context, sc scenario.Scenario, mode Mode) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	ctx = tracing.NewSimulationContext(ctx)
	runID := tracing.GetRunID(ctx)
	ctx, span := tracing.StartSpan(ctx, tracerName, "simulation.run",
		attribute.String("run_id", runID),
		attribute.String("mode", string(mode)),
		attribute.Int("mowers", len(sc.Mowers)),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, r.logger)
	logger.Info().Str("mode", string(mode)).Int("mowers", len(sc.Mowers)).Stringer("grid", sc.Grid).Msg("Simulation started")

	med := mediator.New(sc.Grid, r.cfg.Mediator)
	counters := &counterSet{}
	counters.attach(med)

	units := make([]unit, len(sc.Mowers))
	for i, spec := range sc.Mowers {
		units[i] = unit{spec: spec, mower: mower.New(spec.ID, spec.Start)}
	}

	observability.SimulationStarted(len(units))
	startedAt := time.Now()

	var (
		err        error
		queueStats *queueStatsSet
	)
	if mode == ModeSequential {
		err = r.runSequential(ctx, med, units)
	} else {
		queueStats = &queueStatsSet{}
		err = r.runConcurrent(ctx, med, units, queueStats)
	}

	duration := time.Since(startedAt)
	observability.RecordSimulationRun(duration, err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Dur("duration", duration).Msg("Simulation failed")
		observability.RecordRunAudit(ctx, runID, string(mode), err, map[string]any{
			"mowers":      len(units),
			"duration_ms": duration.Milliseconds(),
		})
		return nil, err
	}

	report := &Report{
		RunID:     runID,
		Mode:      mode,
		StartedAt: startedAt,
		Duration:  duration,
		Mowers:    make([]MowerResult, 0, len(units)),
		Counters:  counters.snapshot(),
	}
	if queueStats != nil {
		report.Queue = queueStats.snapshot()
	}
	for _, u := range units {
		report.Mowers = append(report.Mowers, MowerResult{
			ID:         u.spec.ID,
			Start:      u.spec.Start,
			Final:      u.mower.Position(),
			Registered: med.IsRegistered(u.mower),
		})
	}

	logger.Info().
		Dur("duration", duration).
		Int64("moves", report.Counters.Moves).
		Int64("blocked", report.Counters.Blocked).
		Int64("out_of_bounds", report.Counters.OutOfBounds).
		Msg("Simulation completed")
	observability.RecordRunAudit(ctx, runID, string(mode), nil, map[string]any{
		"mowers":      len(units),
		"duration_ms": duration.Milliseconds(),
		"final":       report.Lines(),
		"counters":    report.Counters,
	})
	return report, nil
}

func (r *Runner) runConcurrent(ctx context.Context, coord Coordinator, units []unit, stats *queueStatsSet) error {
	queue := commandqueue.New()
	defer queue.Close()
	stats.attach(queue)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.PoolSize, len(units), 1))

	for _, u := range units {
		lane := "mower:" + u.spec.ID
		g.Go(func() error {
			return r.schedule(tracing.PropagateToMower(gctx, u.spec.ID, lane), queue, lane, coord, u)
		})
	}

	return g.Wait()
}

// schedule queues the register step and every instruction on the mower's
// lane, then collects the results in order. The first failure cancels the
// steps still queued behind it.
func (r *Runner) schedule(ctx context.Context, queue *commandqueue.CommandQueue, lane string, coord Coordinator, u unit) error {
	ctx, span := r.mowerSpan(ctx, u)
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := &commandqueue.TaskOptions{WarnAfter: r.cfg.SlowTaskWarning}
	results := make([]<-chan commandqueue.Result, 0, len(u.spec.Program)+1)
	results = append(results, queue.Submit(ctx, lane, func(ctx context.Context) (any, error) {
		return nil, r.register(ctx, coord, u)
	}, opts))
	for i, instruction := range u.spec.Program {
		results = append(results, queue.Submit(ctx, lane, func(ctx context.Context) (any, error) {
			return r.step(ctx, coord, u, i, instruction)
		}, opts))
	}

	for _, result := range results {
		res := <-result
		if res.Err != nil {
			cancel()
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			return res.Err
		}
	}

	logger := tracing.LoggerFromContext(ctx, r.logger)
	logger.Debug().Stringer("position", u.mower.Position()).Msg("Program completed")
	return nil
}

// runSequential registers each mower and replays its program before the
// next mower is read, so a mower only ever meets those before it.
func (r *Runner) runSequential(ctx context.Context, coord Coordinator, units []unit) error {
	for _, u := range units {
		if err := r.replay(tracing.PropagateToMower(ctx, u.spec.ID, ""), coord, u); err != nil {
			return err
		}
	}
	return nil
}

// replay registers the mower and applies its program in place
func (r *Runner) replay(ctx context.Context, coord Coordinator, u unit) error {
	ctx, span := r.mowerSpan(ctx, u)
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := r.register(ctx, coord, u); err != nil {
		return fail(err)
	}
	for i, instruction := range u.spec.Program {
		if _, err := r.step(ctx, coord, u, i, instruction); err != nil {
			return fail(err)
		}
	}

	logger := tracing.LoggerFromContext(ctx, r.logger)
	logger.Debug().Stringer("position", u.mower.Position()).Msg("Program completed")
	return nil
}

func (r *Runner) mowerSpan(ctx context.Context, u unit) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, tracerName, "simulation.mower",
		attribute.String("mower_id", u.spec.ID),
		attribute.Int("instructions", len(u.spec.Program)),
	)
}

// register places the mower on the lawn. A dropped registration is not an
// error: the mower keeps its start position and its steps do nothing.
func (r *Runner) register(ctx context.Context, coord Coordinator, u unit) error {
	if err := sleep(ctx, r.cfg.Jitter()); err != nil {
		return err
	}
	if err := coord.Register(ctx, u.mower); err != nil {
		return fmt.Errorf("register mower %s: %w", u.spec.ID, err)
	}
	if !coord.IsRegistered(u.mower) {
		logger := tracing.LoggerFromContext(ctx, r.logger)
		logger.Warn().Stringer("position", u.spec.Start).Msg("Mower not registered, program skipped")
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("registered", false))
	}
	return nil
}

// step applies instruction i of the mower's program
func (r *Runner) step(ctx context.Context, coord Coordinator, u unit, i int, instruction lawn.Instruction) (lawn.Position, error) {
	if !coord.IsRegistered(u.mower) {
		return u.mower.Position(), nil
	}
	if err := sleep(ctx, r.cfg.Jitter()); err != nil {
		return u.mower.Position(), err
	}

	pos, err := coord.Dispatch(ctx, instruction, u.mower)
	if err != nil {
		return pos, fmt.Errorf("mower %s: instruction %d (%s): %w", u.spec.ID, i+1, instruction, err)
	}
	return pos, nil
}
