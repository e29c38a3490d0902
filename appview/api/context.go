package api

import "context"

// Credentials is anything that can report the current session. The
// authentication store satisfies it.
type Credentials interface {
	Credentials() (id, password string, ok bool)
}

type credentialsKey struct{}

// WithCredentials attaches the session source consulted by the
// transport for every request made with the returned context.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, c)
}

func credentialsFromContext(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey{}).(Credentials)
	return c, ok && c != nil
}
