package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sobrinkedos/aabb-sub003/internal/app"
	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	audithttp "github.com/sobrinkedos/aabb-sub003/internal/audit/http"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/credential"
	"github.com/sobrinkedos/aabb-sub003/internal/observability"
	"github.com/sobrinkedos/aabb-sub003/internal/platform/cache"
	"github.com/sobrinkedos/aabb-sub003/internal/platform/db"
	"github.com/sobrinkedos/aabb-sub003/internal/principal"
	"github.com/sobrinkedos/aabb-sub003/internal/privcache"
	"github.com/sobrinkedos/aabb-sub003/internal/settings"
	"github.com/sobrinkedos/aabb-sub003/internal/tenant"
	"github.com/sobrinkedos/aabb-sub003/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Privilege invalidation degrades to TTL-only without redis.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	auditRepo := audit.NewRepository(dbpool)
	auditLogger := audit.NewLogger(auditRepo, logger, metrics)
	auditLogger.Start()
	defer auditLogger.Close()

	principalRepo := principal.NewRepository(dbpool)
	privileges := privcache.NewBroadcast(privcache.New(cfg.PrivilegeCacheTTL), redisClient, logger)
	go privileges.Listen(ctx)

	authzService := authz.NewService(principalRepo, auditLogger, privileges).WithObserver(metrics)
	principalService := principal.NewService(principalRepo, auditLogger, privileges)

	settingsRepo := settings.NewRepository(dbpool)
	settingsService := settings.NewService(settingsRepo, authzService, auditLogger)

	credentialService := credential.NewService(principalRepo, settingsService, auditLogger)

	tenantRepo := tenant.NewRepository(dbpool)
	tenantService := tenant.NewService(tenantRepo)

	auditService := audit.NewService(auditRepo, auditLogger)
	scanner := audit.NewScanner(auditRepo)
	auditHandler := audithttp.NewHandler(auditService, scanner, authzService)

	var jobsHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobsClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Warn("jobs client", slog.Any("error", err))
		} else {
			defer func() {
				if err := jobsClient.Close(); err != nil {
					logger.Warn("jobs client close", slog.Any("error", err))
				}
			}()
			auditHandler = auditHandler.WithEnqueuer(jobsClient)
			jobsHandler = jobs.NewHandler(asynq.NewInspector(redisOpts), logger)
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthzHandler:      authz.NewHandler(authzService),
		PrincipalHandler:  principal.NewHandler(principalService),
		TenantHandler:     tenant.NewHandler(tenantService),
		SettingsHandler:   settings.NewHandler(settingsService),
		CredentialHandler: credential.NewHandler(credentialService),
		AuditHandler:      auditHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
