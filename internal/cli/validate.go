package cli

import (
	"fmt"

	"github.com/harun/lawnmower/internal/config"
	"github.com/harun/lawnmower/pkg/scenario"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <input>",
	Short: "Check a scenario file without running it",
	Long: `Parse and validate a scenario file. The grid, every start position,
orientation and instruction are checked; nothing is simulated.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	sc, err := scenario.Load(args[0], scenario.LineOptions{XMin: cfg.Input.XMin, YMin: cfg.Input.YMin})
	if err != nil {
		return err
	}

	instructions := 0
	for _, m := range sc.Mowers {
		instructions += len(m.Program)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (grid %s, %d mowers, %d instructions)\n",
		args[0], sc.Grid, len(sc.Mowers), instructions)
	return nil
}
