package httpapi

import (
	"net/http"

	"luigi/internal/audit"
	"luigi/internal/authn"
	"luigi/internal/ratelimit"
)

// buildMux assembles the route table from spec §4.11 and wraps it in the
// fixed middleware chain (spec §9: IP gate → rate limiter → authenticator →
// route validator → handler), grounded on the teacher's CreateMux +
// setupXRoutes layering in internal/server/oauth_http.go.
func buildMux(deps *Deps, authr *authn.Authenticator, gates *ratelimit.Gates, ipGate *ratelimit.IPGate, auditLog *audit.Logger, tlsEnabled bool, corsOrigin string) http.Handler {
	mux := http.NewServeMux()

	authed := authMiddleware(authr, auditLog)
	serviceOpLimit := rateLimitMiddleware(gates.ServiceOp, nil, auditLog)
	auxLimit := rateLimitMiddleware(gates.AuxInvoker, gates.Speed, auditLog)

	mux.HandleFunc("GET /health", handleHealth)

	mux.Handle("GET /api/modules", chain(http.HandlerFunc(deps.handleModulesList), authed))
	mux.Handle("GET /api/modules/{name}", chain(http.HandlerFunc(deps.handleModuleGet), authed))
	mux.Handle("POST /api/modules/{name}/start", chain(deps.handleModuleOp("start"), authed, serviceOpLimit))
	mux.Handle("POST /api/modules/{name}/stop", chain(deps.handleModuleOp("stop"), authed, serviceOpLimit))
	mux.Handle("POST /api/modules/{name}/restart", chain(deps.handleModuleOp("restart"), authed, serviceOpLimit))

	mux.Handle("GET /api/registry", chain(http.HandlerFunc(deps.handleRegistryList), authed))
	mux.Handle("GET /api/registry/{path...}", chain(http.HandlerFunc(deps.handleRegistryGet), authed))

	mux.Handle("GET /api/system/status", chain(http.HandlerFunc(deps.handleSystemStatus), authed))
	mux.Handle("POST /api/system/reboot", chain(deps.handleSystemAction("reboot"), authed, serviceOpLimit))
	mux.Handle("POST /api/system/shutdown", chain(deps.handleSystemAction("shutdown"), authed, serviceOpLimit))
	mux.Handle("POST /api/system/update", chain(deps.handleSystemAction("update"), authed, serviceOpLimit))
	mux.Handle("POST /api/system/cleanup", chain(deps.handleSystemAction("cleanup"), authed, serviceOpLimit))

	mux.Handle("GET /api/logs", chain(http.HandlerFunc(deps.handleLogsList), authed))
	mux.Handle("GET /api/logs/{module}", chain(http.HandlerFunc(deps.handleLogsTail), authed))

	mux.Handle("GET /api/config", chain(http.HandlerFunc(deps.handleConfigList), authed))
	mux.Handle("GET /api/config/{path...}", chain(http.HandlerFunc(deps.handleConfigGet), authed))
	mux.Handle("PUT /api/config/{path...}", chain(http.HandlerFunc(deps.handleConfigPut), authed))

	mux.Handle("GET /api/sounds", chain(http.HandlerFunc(deps.handleSoundsList), authed))
	mux.Handle("GET /api/sounds/{name}", chain(http.HandlerFunc(deps.handleSoundsAssets), authed))
	mux.Handle("POST /api/sounds/{name}/play", chain(http.HandlerFunc(deps.handleSoundsPlay), authed, auxLimit))

	return chain(mux,
		securityHeaders(tlsEnabled),
		cors(corsOrigin, auditLog),
		bodyLimit,
		ipGateMiddleware(ipGate, auditLog),
		rateLimitMiddleware(gates.Global, nil, auditLog),
		slowRequestLogger(auditLog),
	)
}
