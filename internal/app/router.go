package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/sobrinkedos/aabb-sub003/internal/audit/http"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/credential"
	"github.com/sobrinkedos/aabb-sub003/internal/observability"
	"github.com/sobrinkedos/aabb-sub003/internal/principal"
	"github.com/sobrinkedos/aabb-sub003/internal/settings"
	"github.com/sobrinkedos/aabb-sub003/internal/tenant"
	"github.com/sobrinkedos/aabb-sub003/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthzHandler      *authz.Handler
	PrincipalHandler  *principal.Handler
	TenantHandler     *tenant.Handler
	SettingsHandler   *settings.Handler
	CredentialHandler *credential.Handler
	AuditHandler      *audithttp.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.TenantHandler != nil {
		params.TenantHandler.MountRoutes(r)
	}
	if params.AuthzHandler != nil {
		params.AuthzHandler.MountRoutes(r)
	}
	if params.PrincipalHandler != nil {
		params.PrincipalHandler.MountRoutes(r)
	}
	if params.SettingsHandler != nil {
		params.SettingsHandler.MountRoutes(r)
	}
	if params.CredentialHandler != nil {
		params.CredentialHandler.MountRoutes(r)
	}
	if params.AuditHandler != nil {
		params.AuditHandler.MountRoutes(r)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
