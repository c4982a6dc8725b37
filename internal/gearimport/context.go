package gearimport

import "context"

type contextKey string

const (
	ctxKeyUserID    contextKey = "user_id"
	ctxKeyIPAddress contextKey = "ip_address"
)

// ContextWithUserID stores the authenticated user id.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext returns the user id stored by ContextWithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID).(string)
	return v, ok && v != ""
}

// ContextWithIPAddress stores the client address for import logs.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// IPAddressFromContext returns the client address, or "".
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
