package cli

import (
	"fmt"
	"os"

	"github.com/harun/lawnmower/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulation HTTP API",
	Long: `Start the simulation HTTP API in the foreground.

  POST /v1/simulations  run a JSON scenario and return the report
  GET  /healthz         liveness
  GET  /metrics         Prometheus metrics (when metrics.enabled)

The server stops on SIGINT or SIGTERM; "mower stop" sends the latter.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	if cmd.Flags().Changed("host") {
		env.cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		env.cfg.Server.Port = servePort
	}
	if err := env.cfg.Validate(); err != nil {
		return err
	}

	pidFile := getPIDFilePath()
	if isRunning(pidFile) {
		return fmt.Errorf("server is already running (PID file: %s)", pidFile)
	}
	if err := writePIDFile(pidFile); err != nil {
		return err
	}
	defer os.Remove(pidFile)

	addr := env.cfg.Server.Addr()
	s := api.NewServer(addr, api.Handler{
		Simulator: env.runner(),
		MaxMowers: env.cfg.Server.MaxMowers,
		Metrics:   env.cfg.Metrics.Enabled,
	})

	log.Info().Str("addr", addr).Int("pid", os.Getpid()).Msg("Serving simulation API")
	s.Spin()
	log.Info().Msg("Server stopped")
	return nil
}
