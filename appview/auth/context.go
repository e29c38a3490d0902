package auth

import "context"

type ctxKey struct{}

// IntoContext makes s the session for everything handling ctx.
func IntoContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store placed by IntoContext, or nil, which
// reads as signed out.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(ctxKey{}).(*Store)
	return s
}
