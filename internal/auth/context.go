package auth

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the caller's session to the context.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext returns the attached session, or the unauthenticated
// zero value.
func SessionFromContext(ctx context.Context) Session {
	if ctx == nil {
		return Session{}
	}
	s, _ := ctx.Value(sessionContextKey{}).(Session)
	return s
}
