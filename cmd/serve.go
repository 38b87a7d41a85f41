package cmd

import (
	"context"
	"fmt"

	"luigi/internal/app"

	"github.com/spf13/cobra"
)

var (
	serveDebug        bool
	serveSettingsPath string
)

// serveCmd starts the HTTP control plane and blocks until terminated.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the luigi HTTP control plane",
	Long: `Loads runtime settings, runs the pre-start precheck, and serves the
control plane's HTTP API until SIGINT or SIGTERM, at which point it drains
in-flight requests before exiting.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveSettingsPath, serveDebug)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug-level logging")
	serveCmd.Flags().StringVar(&serveSettingsPath, "settings", "", "Path to the luigi.env settings file (default: /etc/luigi/luigi.env, then ./.env)")
}
