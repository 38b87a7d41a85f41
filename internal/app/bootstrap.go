package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"luigi/internal/audit"
	"luigi/internal/config"
	"luigi/internal/configstore"
	"luigi/internal/httpapi"
	"luigi/internal/logreader"
	"luigi/internal/obslog"
	"luigi/internal/registry"
	"luigi/internal/soundctl"
	"luigi/internal/svcctl"
	"luigi/internal/sysmetrics"
)

// Application is the fully wired control plane, ready to Run.
type Application struct {
	settings config.Settings
	server   *httpapi.Server
	audit    *audit.Logger
}

// NewApplication performs the complete bootstrap sequence from spec
// §4.12's startup order: load settings, validate, run the precheck,
// open the audit log, then assemble the HTTP server. It does not bind a
// listener — that happens in Run.
func NewApplication(cfg *Config) (*Application, error) {
	settings, err := config.Load(cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	level := obslog.ParseLevel(settings.LogLevel)
	if cfg.Debug {
		level = obslog.LevelDebug
	}
	logOutput, err := openLogOutput(settings)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	obslog.Init(level, logOutput)

	checks := settings.Precheck()
	for _, c := range checks {
		if c.OK {
			obslog.Info("Bootstrap", "precheck %s: pass", c.Name)
		} else {
			obslog.Error("Bootstrap", nil, "precheck %s: fail (%s)", c.Name, c.Note)
		}
	}
	if !config.AllOK(checks) {
		return nil, fmt.Errorf("pre-start precheck failed, see log for detail")
	}

	auditLog := audit.New(audit.Config{Path: filepath.Join(settings.LogsPath, "audit.ndjson")})

	reg := registry.New(settings.RegistryPath)
	deps := &httpapi.Deps{
		Registry: reg,
		Services: svcctl.New(),
		Config:   configstore.New(settings.ConfigPath, reg),
		Logs:     logreader.New(settings.LogsPath),
		Metrics:  sysmetrics.New(),
		Sounds:   soundctl.New(reg),
		Audit:    auditLog,
	}

	server, err := httpapi.NewServer(settings, deps, auditLog)
	if err != nil {
		auditLog.Close()
		return nil, fmt.Errorf("build HTTP server: %w", err)
	}

	return &Application{settings: settings, server: server, audit: auditLog}, nil
}

// openLogOutput returns the destination for the application log. With no
// LOG_FILE configured it writes to stdout; otherwise it rotates by
// LOG_MAX_BYTES/LOG_BACKUP_COUNT via lumberjack, the same rotation library
// the audit log uses, so an operator sees consistent behavior across both
// sinks.
func openLogOutput(settings config.Settings) (io.Writer, error) {
	if settings.LogFile == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(settings.LogFile), 0o755); err != nil {
		return nil, err
	}
	maxSizeMB := int(settings.LogMaxBytes / (1024 * 1024))
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &lumberjack.Logger{
		Filename:   settings.LogFile,
		MaxSize:    maxSizeMB,
		MaxBackups: settings.LogBackupCount,
	}, nil
}
