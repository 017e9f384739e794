package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harun/lawnmower/internal/config"
	"github.com/harun/lawnmower/pkg/scenario"
	"github.com/harun/lawnmower/pkg/simulation"
	"github.com/harun/lawnmower/pkg/watch"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	runSequential bool
	runWatch      bool
	runJitterMax  time.Duration
	runStrict     bool
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Run a simulation and print the final positions",
	Long: `Run a simulation from a scenario file and print one "x y O" line per
mower, in input order. Files ending in .yaml or .yml are read as YAML;
anything else uses the line format:

  5 5
  1 2 N
  GAGAGAGAA
  3 3 E
  AADAADADDA`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runSequential, "sequential", false, "run the mowers one after another in input order")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "re-run whenever the input file changes")
	runCmd.Flags().DurationVar(&runJitterMax, "jitter-max", 0, "random delay before each step, up to this duration (overrides simulation.jitter_max_ms)")
	runCmd.Flags().BoolVar(&runStrict, "strict-registration", false, "fail the run when a mower cannot register (overrides simulation.strict_registration)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	applyRunFlags(cmd, env.cfg)
	if err := env.cfg.Validate(); err != nil {
		return err
	}

	r := env.runner()
	path := args[0]
	out := cmd.OutOrStdout()

	if !runWatch {
		return simulateFile(cmd.Context(), r, path, env.cfg.Input, runSequential, out)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rerun := func(string) error {
		return simulateFile(ctx, r, path, env.cfg.Input, runSequential, out)
	}
	if err := rerun(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Simulation failed, waiting for changes")
	}

	w, err := watch.New(watch.Config{
		Path:     path,
		Debounce: time.Duration(env.cfg.Input.WatchDebounceMs) * time.Millisecond,
		OnChange: rerun,
	})
	if err != nil {
		return err
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("jitter-max") {
		cfg.Simulation.JitterMaxMs = int(runJitterMax / time.Millisecond)
	}
	if cmd.Flags().Changed("strict-registration") {
		cfg.Simulation.StrictRegistration = runStrict
	}
}

func simulateFile(ctx context.Context, r *simulation.Runner, path string, input config.InputConfig, sequential bool, out io.Writer) error {
	sc, err := scenario.Load(path, scenario.LineOptions{XMin: input.XMin, YMin: input.YMin})
	if err != nil {
		return err
	}

	var report *simulation.Report
	if sequential {
		report, err = r.RunSequential(ctx, sc)
	} else {
		report, err = r.Run(ctx, sc)
	}
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	return report.WriteText(out)
}
