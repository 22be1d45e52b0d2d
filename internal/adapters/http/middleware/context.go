// Package middleware provides the Gin middleware chain for the widget API.
package middleware

import "context"

type contextKey struct{ name string }

var (
	requestIDKey     = &contextKey{"request_id"}
	correlationIDKey = &contextKey{"correlation_id"}
)

// RequestIDFromContext returns the request ID stored by RequestID, or "".
// The feed client forwards it upstream.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// CorrelationIDFromContext returns the correlation ID stored by
// CorrelationID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDKey)
}

// ContextWithRequestID returns a copy of ctx carrying a request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID returns a copy of ctx carrying a correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func stringValue(ctx context.Context, key *contextKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
