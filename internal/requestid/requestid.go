// Package requestid tags each API request with a correlation ID so a single
// session transition can be traced through the middleware chain, the audit
// log, and the X-Request-ID response header.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request ID carried by ctx. A context without one
// gets a fresh ID rather than an empty string, so log lines always correlate.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// New mints a request ID and returns the enriched context together with it.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}
