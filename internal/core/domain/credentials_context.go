package domain

import "context"

type bearerTokenKey struct{}

// WithBearerToken attaches the caller's raw bearer token so outbound clients
// can forward it to collaborators that require it.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}
