package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditAnomalyScan sweeps recent audit entries for suspicious patterns.
	TaskAuditAnomalyScan = "audit:anomaly_scan"
	// TaskAuditRetentionPurge trims audit entries past the retention horizon.
	TaskAuditRetentionPurge = "audit:retention_purge"
)

// AnomalyScanPayload parametrises a scan run. WindowHours defaults to 24
// when unset.
type AnomalyScanPayload struct {
	WindowHours int `json:"window_hours"`
}

// NewAnomalyScanTask constructs an Asynq task.
func NewAnomalyScanTask(payload AnomalyScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditAnomalyScan, data), nil
}

// RetentionPurgePayload parametrises a purge run. RetentionHours defaults
// to the configured service retention when unset.
type RetentionPurgePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewRetentionPurgeTask constructs an Asynq task.
func NewRetentionPurgeTask(payload RetentionPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetentionPurge, data), nil
}
