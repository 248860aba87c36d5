package shared

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated-principal assertion handed over by the
// session layer: which principal is calling and which tenant it claims.
type Identity struct {
	PrincipalID uuid.UUID
	TenantID    uuid.UUID
}

// Valid reports whether both references are populated.
func (id Identity) Valid() bool {
	return id.PrincipalID != uuid.Nil && id.TenantID != uuid.Nil
}

// RequestMeta carries the request origin recorded on audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type identityContextKey struct{}
type requestMetaContextKey struct{}

// ContextWithRequestMeta stores request origin details in context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaContextKey{}, meta)
}

// RequestMetaFromContext extracts request origin details from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaContextKey{}).(RequestMeta)
	return meta
}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok && id.Valid()
}
