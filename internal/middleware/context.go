package middleware

import "context"

// ContextKey is the type for context keys set by the middleware chain.
type ContextKey string

const (
	// RequestIDKey carries the per-request tracing ID.
	RequestIDKey ContextKey = "requestID"
	// CallerIDKey carries the authenticated caller identity ("anonymous"
	// when no service key was presented).
	CallerIDKey ContextKey = "callerID"
	// NestAPIKeyKey carries a per-request upstream API credential taken from
	// the X-Nest-API-Key header. Absence is not an error.
	NestAPIKeyKey ContextKey = "nestAPIKey"
)

// GetRequestID returns the request tracing ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetCallerID returns the authenticated caller identity, or "" outside a request.
func GetCallerID(ctx context.Context) string {
	id, _ := ctx.Value(CallerIDKey).(string)
	return id
}

// GetNestAPIKey returns the per-request upstream credential, or "" when the
// caller supplied none.
func GetNestAPIKey(ctx context.Context) string {
	key, _ := ctx.Value(NestAPIKeyKey).(string)
	return key
}
