package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

func TestIdentityMiddlewareLiftsHeaders(t *testing.T) {
	principalID := uuid.New()
	tenantID := uuid.New()

	var got shared.Identity
	var ok bool
	var meta shared.RequestMeta
	handler := identityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = shared.IdentityFromContext(r.Context())
		meta = shared.RequestMetaFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderPrincipalID, principalID.String())
	req.Header.Set(HeaderTenantID, tenantID.String())
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "10.1.2.3:5000"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	assert.Equal(t, principalID, got.PrincipalID)
	assert.Equal(t, tenantID, got.TenantID)
	assert.Equal(t, "10.1.2.3", meta.IP)
	assert.Equal(t, "test-agent", meta.UserAgent)
}

func TestIdentityMiddlewareSkipsInvalidHeaders(t *testing.T) {
	var ok bool
	handler := identityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = shared.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderPrincipalID, "not-a-uuid")
	req.Header.Set(HeaderTenantID, uuid.New().String())
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, ok, "a partial identity must not reach handlers")
}

func TestMiddlewareStackOmitsOptionalLayers(t *testing.T) {
	stack := MiddlewareStack(MiddlewareConfig{})
	base := len(stack)

	cfg := &Config{AppRequestTimeout: 0}
	withConfig := MiddlewareStack(MiddlewareConfig{Config: cfg})
	assert.Equal(t, base, len(withConfig), "zero timeout adds no layer")
}
