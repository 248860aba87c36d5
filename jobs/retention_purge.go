package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// PurgeRepository covers the writes the retention job needs.
type PurgeRepository interface {
	TenantIDs(ctx context.Context) ([]uuid.UUID, error)
	Purge(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error)
}

// RetentionPurgeJob deletes audit entries older than the retention horizon
// across all tenants.
type RetentionPurgeJob struct {
	Repo      PurgeRepository
	Logger    *slog.Logger
	Retention time.Duration
}

// NewRetentionPurgeJob initialises the purge handler.
func NewRetentionPurgeJob(repo PurgeRepository, logger *slog.Logger, retention time.Duration) *RetentionPurgeJob {
	return &RetentionPurgeJob{Repo: repo, Logger: logger, Retention: retention}
}

// Handle executes the purge for each tenant.
func (j *RetentionPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("retention purge: handler not configured")
	}
	var payload RetentionPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := j.Retention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	if retention <= 0 {
		return asynq.SkipRetry
	}
	cutoff := time.Now().UTC().Add(-retention)

	logger := j.logger().With(slog.Time("cutoff", cutoff))
	logger.Info("starting retention purge")

	tenants, err := j.Repo.TenantIDs(ctx)
	if err != nil {
		logger.Error("purge failed", slog.Any("error", err))
		return err
	}

	var removed int64
	for _, tenantID := range tenants {
		n, err := j.Repo.Purge(ctx, tenantID, cutoff)
		if err != nil {
			logger.Error("tenant purge failed",
				slog.String("tenant_id", tenantID.String()),
				slog.Any("error", err),
			)
			continue
		}
		removed += n
	}

	logger.Info("completed retention purge",
		slog.Int("tenants", len(tenants)),
		slog.Int64("removed", removed),
	)
	return nil
}

func (j *RetentionPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditRetentionPurge))
	}
	return slog.Default().With(slog.String("job", TaskAuditRetentionPurge))
}
