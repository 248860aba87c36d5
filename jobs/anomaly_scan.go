package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/observability"
)

// TenantLister enumerates the tenants the scan should cover.
type TenantLister interface {
	TenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// AnomalyScanJob runs the audit scanner over every tenant's recent entries
// and logs what it finds. Findings are not persisted; the log stream and
// the anomaly counter are the alerting surface.
type AnomalyScanJob struct {
	Scanner *audit.Scanner
	Tenants TenantLister
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewAnomalyScanJob initialises the anomaly scan handler.
func NewAnomalyScanJob(scanner *audit.Scanner, tenants TenantLister, logger *slog.Logger, metrics *observability.Metrics) *AnomalyScanJob {
	return &AnomalyScanJob{Scanner: scanner, Tenants: tenants, Logger: logger, Metrics: metrics}
}

// Handle executes the scan for each tenant in turn. A failure in one
// tenant does not stop the sweep.
func (j *AnomalyScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Scanner == nil || j.Tenants == nil {
		return errors.New("anomaly scan: handler not configured")
	}
	var payload AnomalyScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 24
	}
	window := time.Duration(payload.WindowHours) * time.Hour

	logger := j.logger().With(slog.Int("window_hours", payload.WindowHours))
	logger.Info("starting anomaly scan")
	start := time.Now()

	tenants, err := j.Tenants.TenantIDs(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	var total int
	var failed int
	for _, tenantID := range tenants {
		findings, err := j.Scanner.Scan(ctx, tenantID, window)
		if err != nil {
			failed++
			logger.Error("tenant scan failed",
				slog.String("tenant_id", tenantID.String()),
				slog.Any("error", err),
			)
			continue
		}
		for _, f := range findings {
			level := slog.LevelWarn
			if f.Informational {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "audit anomaly detected",
				slog.String("tenant_id", f.TenantID.String()),
				slog.String("category", string(f.Category)),
				slog.Int("entries", len(f.Entries)),
			)
			j.Metrics.AddAnomalies(string(f.Category), 1)
		}
		total += len(findings)
	}

	logger.Info("completed anomaly scan",
		slog.Int("tenants", len(tenants)),
		slog.Int("findings", total),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)),
	)
	if failed > 0 && failed == len(tenants) {
		return errors.New("anomaly scan: all tenant scans failed")
	}
	return nil
}

func (j *AnomalyScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditAnomalyScan))
	}
	return slog.Default().With(slog.String("job", TaskAuditAnomalyScan))
}
