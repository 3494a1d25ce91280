package httpx

import (
	"context"

	domainauth "github.com/comfykit/studio-ui/internal/domain/auth"
)

// claimsKey is an unexported context key type to avoid collisions across
// packages. Centralized here so all handlers and middleware share one key.
type claimsKey struct{}

// SetClaimsInContext returns a child context carrying the given claims.
// If claims is nil, the original ctx is returned unchanged.
func SetClaimsInContext(ctx context.Context, claims *domainauth.Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaimsFromContext returns the claims from context and whether they are present.
func GetClaimsFromContext(ctx context.Context) (*domainauth.Claims, bool) {
	if claims, ok := ctx.Value(claimsKey{}).(*domainauth.Claims); ok && claims != nil {
		return claims, true
	}
	return nil, false
}
