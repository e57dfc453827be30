package middleware

import (
	"context"

	"github.com/fotoclick/backend/internal/permissions"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the resolved caller. An anonymous request
// yields the zero identity, which resolves to neither user nor guest.
func IdentityFromContext(ctx context.Context) permissions.Identity {
	if ctx == nil {
		return permissions.Identity{}
	}
	if identity, ok := ctx.Value(ctxIdentity).(permissions.Identity); ok {
		return identity
	}
	return permissions.Identity{}
}

// WithIdentity injects the resolved caller into the context.
func WithIdentity(ctx context.Context, identity permissions.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
