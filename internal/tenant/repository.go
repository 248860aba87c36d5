package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/platform/db"
	"github.com/sobrinkedos/aabb-sub003/internal/principal"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for tenants and the
// bootstrap transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a new tenant.
func (r *Repository) Insert(ctx context.Context, t *Tenant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, timezone, created_at)
		VALUES ($1, $2, $3, NOW())`,
		t.ID, t.Name, t.Timezone,
	)
	if err != nil {
		return fmt.Errorf("tenant: insert: %w", err)
	}
	return nil
}

// Get fetches a tenant by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, timezone, created_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Timezone, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("tenant: get: %w", err)
	}
	return &t, nil
}

// Bootstrap runs the whole first-principal provisioning in one
// transaction: founder principal, full module permissions, default
// settings and the initialization audit entry. A partial unique index
// on founders makes concurrent bootstrap attempts race on the insert:
// exactly one wins, the loser hits a unique violation and gets
// ErrAlreadyBootstrapped. Nothing partial ever becomes observable.
func (r *Repository) Bootstrap(ctx context.Context, founder *principal.Principal, defaults map[authz.Category]map[string]any, entry audit.Entry) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO principals (id, tenant_id, name, email, phone, password_hash,
				is_full_admin, role, is_founder, status, temp_password, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
			founder.ID, founder.TenantID, founder.Name, founder.Email, founder.Phone,
			founder.PasswordHash, founder.IsFullAdmin, string(founder.Role),
			founder.IsFounder, string(founder.Status), founder.TempPassword,
		)
		if err != nil {
			return fmt.Errorf("tenant: insert founder: %w", err)
		}

		full := authz.FullPermission()
		for _, module := range authz.Modules() {
			_, err := tx.Exec(ctx, `
				INSERT INTO module_permissions (tenant_id, principal_id, module,
					can_view, can_create, can_edit, can_delete, can_administer, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
				founder.TenantID, founder.ID, string(module),
				full.View, full.Create, full.Edit, full.Delete, full.Administer,
			)
			if err != nil {
				return fmt.Errorf("tenant: grant %s: %w", module, err)
			}
		}

		for _, category := range authz.Categories() {
			payload, err := json.Marshal(defaults[category])
			if err != nil {
				return fmt.Errorf("tenant: encode %s defaults: %w", category, err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO tenant_settings (tenant_id, category, data, updated_at)
				VALUES ($1, $2, $3, NOW())`,
				founder.TenantID, string(category), payload,
			)
			if err != nil {
				return fmt.Errorf("tenant: default %s settings: %w", category, err)
			}
		}

		detail, err := json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("tenant: encode audit detail: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO audit_entries (id, tenant_id, actor_id, action, resource, detail, ip, user_agent, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)`,
			entry.ID, entry.TenantID, entry.ActorID, entry.Action, entry.Resource,
			detail, entry.IP, entry.UserAgent, entry.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("tenant: audit bootstrap: %w", err)
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shared.ErrAlreadyBootstrapped
		}
		return err
	}
	return nil
}

// HasFounder reports whether the tenant already has a first principal.
func (r *Repository) HasFounder(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM principals WHERE tenant_id = $1 AND is_founder)`,
		tenantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("tenant: has founder: %w", err)
	}
	return exists, nil
}
