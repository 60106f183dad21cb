package auth

import "context"

type sessionContextKey struct{}

// SetSessionToContext stores the authenticated session for downstream
// handlers.
func SetSessionToContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// GetSessionFromContext retrieves the authenticated session. Returns nil
// when the request was not authenticated.
func GetSessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
