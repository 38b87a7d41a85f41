package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"luigi/internal/obslog"
)

// Run prints the startup banner, serves until a termination signal
// arrives, then drains in-flight requests before returning (spec §4.12's
// "bind the listener → log a multi-line banner" / "stop accepting new
// connections, allow in-flight requests up to 10s" shutdown sequence).
func (a *Application) Run(ctx context.Context) error {
	defer a.audit.Close()

	a.printBanner()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.server.Run(ctx)
}

func (a *Application) printBanner() {
	scheme := "http"
	if a.settings.UseHTTPS {
		scheme = "https"
	}
	obslog.Info("Bootstrap", "------------------------------------------------------------")
	obslog.Info("Bootstrap", "luigi control plane")
	obslog.Info("Bootstrap", "listening:     %s://%s:%d", scheme, a.settings.Host, a.settings.Port)
	obslog.Info("Bootstrap", "ip mode:       %s", a.settings.IPMode)
	obslog.Info("Bootstrap", "registry root: %s", a.settings.RegistryPath)
	obslog.Info("Bootstrap", "logs root:     %s", a.settings.LogsPath)
	obslog.Info("Bootstrap", "------------------------------------------------------------")
}
