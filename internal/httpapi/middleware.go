package httpapi

import (
	"net"
	"net/http"
	"net/netip"
	"time"

	"luigi/internal/audit"
	"luigi/internal/authn"
	"luigi/internal/luigierrors"
	"luigi/internal/obslog"
	"luigi/internal/ratelimit"
)

const (
	maxBodyBytes  = 1 << 20 // spec §4.11: request bodies bounded at 1 MiB
	slowThreshold = 5 * time.Second
)

// clientAddr extracts the bare IP from r.RemoteAddr, falling back to the
// whole string if it has no port (e.g. in unit tests using httptest).
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// securityHeaders sets the fixed response headers spec §4.11 requires on
// every response: a conservative CSP, HSTS when TLS is enabled, frame-deny,
// no-sniff, and suppression of the server identification header.
func securityHeaders(tlsEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", "default-src 'none'")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			if tlsEnabled {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cors adds the optional CORS origin allowlist (spec §4.12: CORS_ORIGIN,
// default none). A cross-origin request (one carrying an Origin header) that
// doesn't match the configured origin is rejected with OriginBlocked, per
// spec §7's "403 IP/origin blocked" status mapping. Same-origin and
// non-browser callers (no Origin header at all) are never affected.
func cors(origin string, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if origin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reqOrigin := r.Header.Get("Origin"); reqOrigin != "" && reqOrigin != origin {
				_ = auditLog.Record(audit.EventSecurityViolation, "anonymous", clientAddr(r), r.URL.Path, "failure", map[string]any{"reason": "origin_blocked", "origin": reqOrigin})
				writeErrorEnvelope(w, http.StatusForbidden, luigierrors.KindOriginBlocked.WireError(), "origin not permitted")
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bodyLimit caps request bodies at maxBodyBytes.
func bodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// ipGateMiddleware is the first link in spec §9's fixed chain: IP gate →
// rate limiter → authenticator → route validator → handler.
func ipGateMiddleware(gate *ratelimit.IPGate, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, err := netip.ParseAddr(clientAddr(r))
			if err != nil || !gate.Allowed(addr) {
				_ = auditLog.Record(audit.EventSecurityViolation, "anonymous", clientAddr(r), r.URL.Path, "failure", map[string]any{"reason": "ip_blocked"})
				obslog.Audit(obslog.AuditEvent{Kind: "ip_blocked", Subject: "anonymous", Route: r.URL.Path, Outcome: "failure", Detail: clientAddr(r)})
				writeErrorEnvelope(w, http.StatusForbidden, luigierrors.KindIPBlocked.WireError(), "client address not permitted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies a window gate plus the additive speed limiter.
func rateLimitMiddleware(gate *ratelimit.Gate, speed *ratelimit.SpeedLimiter, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if allowed, retryAfter := gate.Allow(addr); !allowed {
				_ = auditLog.Record(audit.EventRateLimitHit, subjectOf(r), addr, r.URL.Path, "failure", nil)
				obslog.Audit(obslog.AuditEvent{Kind: "rate_limit_hit", Subject: subjectOf(r), Route: r.URL.Path, Outcome: "failure"})
				seconds := int(retryAfter.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				writeError(w, r, auditLog, "RateLimit", luigierrors.RateLimited(seconds))
				return
			}
			if speed != nil {
				if delay := speed.Delay(addr); delay > 0 {
					time.Sleep(delay)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware enforces HTTP Basic auth on every route it wraps (every
// route except the public health endpoint, per spec §4.11's routing table).
func authMiddleware(a *authn.Authenticator, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				_ = auditLog.Record(audit.EventAuthFailure, "anonymous", clientAddr(r), r.URL.Path, "failure", nil)
				obslog.Audit(obslog.AuditEvent{Kind: "auth_failure", Subject: "anonymous", Route: r.URL.Path, Outcome: "failure", Detail: "missing Authorization header"})
				writeError(w, r, auditLog, "Auth", luigierrors.New(luigierrors.KindAuthRequired, "Authentication required"))
				return
			}
			username, password, ok := authn.ParseBasicHeader(header)
			if !ok || !a.Verify(username, password) {
				subject := firstNonEmpty(username, "anonymous")
				_ = auditLog.Record(audit.EventAuthFailure, subject, clientAddr(r), r.URL.Path, "failure", nil)
				obslog.Audit(obslog.AuditEvent{Kind: "auth_failure", Subject: subject, Route: r.URL.Path, Outcome: "failure", Detail: "invalid credentials"})
				writeError(w, r, auditLog, "Auth", luigierrors.New(luigierrors.KindAuthInvalid, "Invalid credentials"))
				return
			}
			obslog.Debug("Auth", "auth_success subject=%s route=%s", username, r.URL.Path)
			_ = auditLog.Record(audit.EventAuthSuccess, username, clientAddr(r), r.URL.Path, "success", nil)
			obslog.Audit(obslog.AuditEvent{Kind: "auth_success", Subject: username, Route: r.URL.Path, Outcome: "success"})
			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), username)))
		})
	}
}

// slowRequestLogger emits an audit record for any request taking longer
// than slowThreshold (spec §4.9's slow_request event).
func slowRequestLogger(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if elapsed := time.Since(start); elapsed > slowThreshold {
				_ = auditLog.Record(audit.EventSlowRequest, subjectOf(r), clientAddr(r), r.URL.Path, "success", map[string]any{
					"duration_ms": elapsed.Milliseconds(),
				})
			}
		})
	}
}

// chain applies middlewares in order, so the first one listed is outermost
// (runs first on the way in).
func chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

