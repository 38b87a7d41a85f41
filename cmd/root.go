package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (bootstrap failure, invalid arguments).
	ExitCodeError = 1
	// ExitCodePrecheckFailed indicates the pre-start precheck found a problem.
	ExitCodePrecheckFailed = 2
)

// rootCmd is the entry point when luigi is invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "luigi",
	Short: "Control plane for Raspberry Pi module management",
	Long: `luigi is a small HTTP control plane for managing systemd-backed modules
on a Raspberry Pi: service lifecycle, registry inspection, configuration
editing, log access, system metrics, and sound playback, all behind a
single authenticated API.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command, injected at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the CLI's main entry point, called from main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "luigi version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		var precheckErr *precheckFailedError
		if errors.As(err, &precheckErr) {
			os.Exit(ExitCodePrecheckFailed)
		}
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
