package app

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/sobrinkedos/aabb-sub003/internal/observability"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Identity headers set by the session layer in front of this service.
const (
	HeaderPrincipalID = "X-Principal-ID"
	HeaderTenantID    = "X-Tenant-ID"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the default middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	stack := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.Recoverer,
		secureMiddleware.Handler,
		identityMiddleware,
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		stack = append(stack, middleware.Timeout(cfg.Config.AppRequestTimeout))
	}
	return stack
}

// identityMiddleware lifts the session layer's identity assertion and
// the request origin into context. Handlers reject requests without an
// identity; nothing here anticipates that decision.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.ContextWithRequestMeta(r.Context(), shared.RequestMeta{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		})
		principalID, perr := uuid.Parse(r.Header.Get(HeaderPrincipalID))
		tenantID, terr := uuid.Parse(r.Header.Get(HeaderTenantID))
		if perr == nil && terr == nil {
			ctx = shared.ContextWithIdentity(ctx, shared.Identity{
				PrincipalID: principalID,
				TenantID:    tenantID,
			})
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
