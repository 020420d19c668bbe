package middleware

import (
	"context"
	"net"
	"net/http"
)

type contextKey string

const callerKey contextKey = "caller"

// setCaller records the identity rate limits are counted against.
func setCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller returns the identity set by Auth.
func GetCaller(r *http.Request) (string, bool) {
	caller, ok := r.Context().Value(callerKey).(string)
	return caller, ok
}

// WithCaller returns a copy of r carrying caller (for testing).
func WithCaller(r *http.Request, caller string) *http.Request {
	return r.WithContext(setCaller(r.Context(), caller))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
