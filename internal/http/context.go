package http

import "context"

type contextKey string

const (
	requestIDContextKey   contextKey = "staticcms/request-id"
	requestPathContextKey contextKey = "staticcms/request-path"
)

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDContextKey)
}

// RequestPathFromContext returns the unescaped URL path of the current request.
func RequestPathFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestPathContextKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
