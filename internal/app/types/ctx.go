package types

import "context"

type RequestIDKey struct{}

// GetRequestID returns request id from context or empty string.
func GetRequestID(ctx context.Context) string {
	v, ok := ctx.Value(RequestIDKey{}).(string)
	if !ok {
		return ""
	}
	return v
}

type ClientKey struct{}

// GetClientKey returns the client address stored by the server
// middleware, used to key rate and in-flight limits.
func GetClientKey(ctx context.Context) string {
	v, ok := ctx.Value(ClientKey{}).(string)
	if !ok {
		return ""
	}
	return v
}
