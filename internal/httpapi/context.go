package httpapi

import (
	"context"
	"net/http"
)

type subjectKey struct{}

// withSubject attaches the authenticated username to the request context so
// downstream handlers and the audit middleware can attribute actions to it.
func withSubject(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, subjectKey{}, username)
}

// subjectOf returns the authenticated username for r, or "anonymous" if the
// request never reached authMiddleware (e.g. the public health route).
func subjectOf(r *http.Request) string {
	if v, ok := r.Context().Value(subjectKey{}).(string); ok && v != "" {
		return v
	}
	return "anonymous"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
