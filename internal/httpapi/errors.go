package httpapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"luigi/internal/audit"
	"luigi/internal/luigierrors"
	"luigi/internal/obslog"
)

// writeError is the single central translation point from an error to an
// HTTP response, grounded on the teacher's internal/server error-to-wire
// mapping (same "one place translates" idea, different wire format). Any
// error not already a *luigierrors.Error is treated as Internal and given a
// request id so the full detail can be found in the application log
// without leaking it to the caller. Because every route error funnels
// through here, this is also the one place that records the two audit
// events tied to the route-validator stage of spec §9's middleware chain:
// unauthorized_access (authenticated subject, disallowed capability) and
// security_violation (path escape, missing asset root).
func writeError(w http.ResponseWriter, r *http.Request, auditLog *audit.Logger, subsystem string, err error) {
	taxErr, ok := luigierrors.As(err)
	if !ok {
		taxErr = luigierrors.Wrap(luigierrors.KindInternal, err, "internal error")
	}

	status := taxErr.Kind.Status()

	switch taxErr.Kind {
	case luigierrors.KindAuthRequired, luigierrors.KindAuthInvalid:
		w.Header().Set("WWW-Authenticate", `Basic realm="Luigi API"`)
	case luigierrors.KindRateLimited:
		w.Header().Set("Retry-After", strconv.Itoa(taxErr.RetryAfterSeconds))
	}

	switch {
	case taxErr.Kind == luigierrors.KindCapabilityMissing:
		_ = auditLog.Record(audit.EventUnauthorizedAccess, subjectOf(r), clientAddr(r), r.URL.Path, "failure", map[string]any{"reason": taxErr.Kind.AuditReason()})
	case taxErr.Kind.SecuritySensitive():
		_ = auditLog.Record(audit.EventSecurityViolation, subjectOf(r), clientAddr(r), r.URL.Path, "failure", map[string]any{"reason": taxErr.Kind.AuditReason()})
	}

	message := taxErr.Message
	if taxErr.Kind == luigierrors.KindInternal {
		requestID := uuid.NewString()
		obslog.Error(subsystem, taxErr.Cause, "internal error (request_id=%s): %s", requestID, taxErr.Message)
		message = "an internal error occurred (request id " + requestID + ")"
	}

	writeErrorEnvelope(w, status, taxErr.Kind.WireError(), message)
}
