package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harun/lawnmower/internal/config"
	"github.com/harun/lawnmower/internal/observability"
	"github.com/spf13/cobra"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write a configuration file holding every setting at its default value.
The format follows the file extension (.yaml, .yml or .json).`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults, the config file and LAWNMOWER_* environment overrides are applied.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	configPath := loader.GetConfigPath()
	if configPath == "" {
		return errors.New("no config path available, pass --config")
	}

	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	// Journal to the audit file named by the current file or environment, if any
	if current, err := config.Load(cfgFile); err == nil && current.Logging.AuditFile != "" {
		if err := observability.InitAuditLogger(current.Logging.AuditFile); err == nil {
			defer observability.SetAuditWriter(io.Discard)
		}
	}

	cfg := config.DefaultConfig()
	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	observability.RecordConfigAudit(context.Background(), "init", map[string]any{"path": configPath})

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
	return nil
}
