package authctx

import (
	"context"

	"query-advisor/internal/auth"
)

type ctxKey int

const claimsKey ctxKey = iota

// WithClaims stores verified token claims in the context.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFrom retrieves the verified claims from the context.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}
