package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Repository provides PostgreSQL backed persistence for configuration
// records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches one category record for the tenant.
func (r *Repository) Get(ctx context.Context, tenantID uuid.UUID, category authz.Category) (Record, error) {
	var (
		record Record
		data   []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT tenant_id, category, data, updated_at
		FROM tenant_settings WHERE tenant_id = $1 AND category = $2`,
		tenantID, string(category),
	).Scan(&record.TenantID, &record.Category, &data, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, shared.ErrNotFound
		}
		return Record{}, fmt.Errorf("settings: get: %w", err)
	}
	if err := json.Unmarshal(data, &record.Data); err != nil {
		return Record{}, fmt.Errorf("settings: decode data: %w", err)
	}
	return record, nil
}

// Upsert writes one category record atomically.
func (r *Repository) Upsert(ctx context.Context, tenantID uuid.UUID, category authz.Category, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("settings: encode data: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tenant_settings (tenant_id, category, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id, category) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()`,
		tenantID, string(category), payload,
	)
	if err != nil {
		return fmt.Errorf("settings: upsert: %w", err)
	}
	return nil
}
