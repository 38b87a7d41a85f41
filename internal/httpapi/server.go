package httpapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"golang.org/x/net/netutil"

	"luigi/internal/audit"
	"luigi/internal/authn"
	"luigi/internal/config"
	"luigi/internal/obslog"
	"luigi/internal/ratelimit"
)

const (
	shutdownGrace = 10 * time.Second
	// maxConcurrentConns caps accepted connections (spec §5: "default 50,
	// documented as a tuning parameter for the constrained target hardware").
	maxConcurrentConns = 50
	// requestDeadline bounds per-request wall time (spec §5's default 30 s).
	requestDeadline = 30 * time.Second
)

// Server binds and serves the route table built by buildMux, honoring
// systemd socket activation when present, per spec §4.11.
type Server struct {
	httpServer *http.Server
	settings   config.Settings
}

// NewServer assembles the full middleware-wrapped handler from deps and
// settings. auditLog is constructed by the caller (internal/app) so its
// lifetime is managed alongside the rest of the application; the rate-limit
// gates and the IP gate are built here from settings.
func NewServer(settings config.Settings, deps *Deps, auditLog *audit.Logger) (*Server, error) {
	authr := authn.New(authn.Credentials{Username: settings.AuthUsername, Password: settings.AuthPassword})
	gates := ratelimit.NewGates()
	ipGate, err := ratelimit.NewIPGate(ratelimit.IPMode(settings.IPMode), settings.AllowedIPs)
	if err != nil {
		return nil, fmt.Errorf("invalid IP gate configuration: %w", err)
	}

	handler := buildMux(deps, authr, gates, ipGate, auditLog, settings.UseHTTPS, settings.CORSOrigin)
	handler = http.TimeoutHandler(handler, requestDeadline, "request timed out")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if settings.UseHTTPS {
		httpServer.TLSConfig = tlsConfig()
	}

	return &Server{httpServer: httpServer, settings: settings}, nil
}

// listener returns a systemd-activated listener when one has been passed
// down by the service manager, falling back to a plain TCP bind otherwise
// (spec §4.11, supplementing the original bind step for nodes that prefer
// socket activation over a fixed port). Either way the result is wrapped in
// netutil.LimitListener so the server never accepts more than
// maxConcurrentConns connections at once (spec §5).
func (s *Server) listener() (net.Listener, bool, error) {
	listeners, err := activation.Listeners()
	if err == nil && len(listeners) > 0 {
		obslog.Info("HTTPAPI", "using %d systemd-activated listener(s)", len(listeners))
		return netutil.LimitListener(listeners[0], maxConcurrentConns), true, nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, false, err
	}
	return netutil.LimitListener(ln, maxConcurrentConns), false, nil
}

// Run serves until ctx is canceled, then drains in-flight requests for up
// to shutdownGrace before returning.
func (s *Server) Run(ctx context.Context) error {
	ln, activated, err := s.listener()
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.httpServer.Addr, err)
	}

	if s.settings.UseHTTPS {
		cert, err := tls.LoadX509KeyPair(s.settings.TLSCertPath, s.settings.TLSKeyPath)
		if err != nil {
			return fmt.Errorf("load TLS material: %w", err)
		}
		s.httpServer.TLSConfig.Certificates = []tls.Certificate{cert}
		ln = tls.NewListener(ln, s.httpServer.TLSConfig)
	}

	serveErr := make(chan error, 1)
	go func() {
		scheme := "http"
		if s.settings.UseHTTPS {
			scheme = "https"
		}
		obslog.Info("HTTPAPI", "listening on %s://%s (systemd_activation=%v)", scheme, s.httpServer.Addr, activated)
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		obslog.Info("HTTPAPI", "shutdown signal received, draining for up to %s", shutdownGrace)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			obslog.Error("HTTPAPI", err, "graceful shutdown failed, forcing close")
			return s.httpServer.Close()
		}
		return nil
	}
}
