package cmd

import (
	"fmt"
	"io"

	"luigi/internal/config"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	checkSettingsPath string
	checkWatch        bool
)

// checkCmd runs the standalone pre-start precheck (spec §4.12): TLS
// materials, log directory writability, required credentials, and
// registry root readability, printing each check with a pass/fail marker.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the pre-start precheck without serving",
	Long: `Loads settings the same way 'luigi serve' does and runs every pre-start
check, printing a pass/fail marker for each. Exits non-zero if any check
fails, so it can be used as a systemd ExecStartPre or a deploy-time gate.

With --watch, the settings file is re-checked every time it changes instead
of exiting after the first run, which is convenient while hand-editing
luigi.env before a restart.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	if !checkWatch {
		allOK, err := runOnceAndPrint(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !allOK {
			cmd.SilenceUsage = true
			return &precheckFailedError{}
		}
		return nil
	}

	return watchAndRecheck(cmd.OutOrStdout())
}

// runOnceAndPrint loads settings, runs every check, and prints a pass/fail
// line for each, returning whether every check passed.
func runOnceAndPrint(out io.Writer) (bool, error) {
	settings, err := config.Load(checkSettingsPath)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}

	checks := settings.Precheck()
	if err := settings.Validate(); err != nil {
		checks = append(checks, config.Check{Name: "settings", OK: false, Note: err.Error()})
	}

	allOK := true
	for _, c := range checks {
		marker := "PASS"
		if !c.OK {
			marker = "FAIL"
			allOK = false
		}
		if c.Note != "" {
			fmt.Fprintf(out, "[%s] %s: %s\n", marker, c.Name, c.Note)
		} else {
			fmt.Fprintf(out, "[%s] %s\n", marker, c.Name)
		}
	}
	return allOK, nil
}

// watchAndRecheck re-runs the precheck every time the settings file
// is written or created, until the watcher reports an error or its channels
// close. Remove and rename events are ignored.
func watchAndRecheck(out io.Writer) error {
	if _, err := runOnceAndPrint(out); err != nil {
		return err
	}

	path := checkSettingsPath
	if path == "" {
		path = "/etc/luigi/luigi.env"
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Fprintf(out, "--- %s changed, re-checking ---\n", path)
			if _, err := runOnceAndPrint(out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

type precheckFailedError struct{}

func (*precheckFailedError) Error() string { return "precheck failed" }

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkSettingsPath, "settings", "", "Path to the luigi.env settings file")
	checkCmd.Flags().BoolVar(&checkWatch, "watch", false, "Re-run the precheck every time the settings file changes")
}
