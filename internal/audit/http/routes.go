package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes registers the audit endpoints. The purge and the scanner
// sit behind a per-principal rate limit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Get("/audit", h.handleQuery)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Delete("/audit", h.handlePurge)
		gr.Get("/audit/anomalies", h.handleAnomalies)
		gr.Post("/audit/anomalies/scan", h.handleScanRequest)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if identity, ok := shared.IdentityFromContext(r.Context()); ok {
		return "principal:" + identity.PrincipalID.String(), nil
	}
	return httprate.KeyByIP(r)
}
