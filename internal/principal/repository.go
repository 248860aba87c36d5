package principal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/platform/db"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Repository provides PostgreSQL backed persistence for principals and
// their module permissions. It also serves as the evaluator's store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const principalColumns = `id, tenant_id, name, email, phone, password_hash,
	is_full_admin, role, is_founder, status, temp_password, last_login_at,
	created_at, updated_at`

// Get fetches a principal by ID regardless of tenant. The tenant
// comparison happens in the guard, which needs the stored reference.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	return scanPrincipal(row)
}

// GetInTenant fetches a principal scoped to the tenant.
func (r *Repository) GetInTenant(ctx context.Context, tenantID, id uuid.UUID) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return scanPrincipal(row)
}

// List returns every principal of the tenant ordered by name.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]Principal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+principalColumns+` FROM principals WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("principal: list: %w", err)
	}
	defer rows.Close()
	var principals []Principal
	for rows.Next() {
		p, err := scanPrincipalRows(rows)
		if err != nil {
			return nil, err
		}
		principals = append(principals, *p)
	}
	return principals, rows.Err()
}

// Insert persists a new principal.
func (r *Repository) Insert(ctx context.Context, p *Principal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO principals (id, tenant_id, name, email, phone, password_hash,
			is_full_admin, role, is_founder, status, temp_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
		p.ID, p.TenantID, p.Name, p.Email, optionalText(p.Phone), p.PasswordHash,
		p.IsFullAdmin, string(p.Role), p.IsFounder, string(p.Status), p.TempPassword,
	)
	if err != nil {
		return fmt.Errorf("principal: insert: %w", err)
	}
	return nil
}

// UpdateRole changes the role in a single atomic write.
func (r *Repository) UpdateRole(ctx context.Context, tenantID, id uuid.UUID, role authz.Role) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE principals SET role = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, string(role),
	)
	if err != nil {
		return fmt.Errorf("principal: update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus changes the lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE principals SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, string(status),
	)
	if err != nil {
		return fmt.Errorf("principal: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new hash and the temporary flag state.
func (r *Repository) UpdatePassword(ctx context.Context, tenantID, id uuid.UUID, hash string, temporary bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE principals SET password_hash = $3, temp_password = $4, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, hash, temporary,
	)
	if err != nil {
		return fmt.Errorf("principal: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TouchLogin records the authentication timestamp.
func (r *Repository) TouchLogin(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE principals SET last_login_at = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, at,
	)
	if err != nil {
		return fmt.Errorf("principal: touch login: %w", err)
	}
	return nil
}

// Delete removes the principal together with its module permission
// records, in one transaction.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM module_permissions WHERE principal_id = $1`, id); err != nil {
			return fmt.Errorf("principal: delete permissions: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM principals WHERE id = $1 AND tenant_id = $2`, id, tenantID)
		if err != nil {
			return fmt.Errorf("principal: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// PrincipalRecord implements the evaluator's store view.
func (r *Repository) PrincipalRecord(ctx context.Context, principalID uuid.UUID) (authz.PrincipalRecord, error) {
	p, err := r.Get(ctx, principalID)
	if err != nil {
		return authz.PrincipalRecord{}, err
	}
	return authz.PrincipalRecord{
		ID:           p.ID,
		TenantID:     p.TenantID,
		Role:         p.Role,
		IsFullAdmin:  p.IsFullAdmin,
		Active:       p.Status == StatusActive,
		TempPassword: p.TempPassword,
	}, nil
}

// ModulePermission fetches the five-flag record for one module. The
// second return value reports whether a record exists at all; a missing
// record reads as everything denied.
func (r *Repository) ModulePermission(ctx context.Context, principalID uuid.UUID, module authz.Module) (authz.ModulePermission, bool, error) {
	var p authz.ModulePermission
	err := r.pool.QueryRow(ctx, `
		SELECT can_view, can_create, can_edit, can_delete, can_administer
		FROM module_permissions WHERE principal_id = $1 AND module = $2`,
		principalID, string(module),
	).Scan(&p.View, &p.Create, &p.Edit, &p.Delete, &p.Administer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.ModulePermission{}, false, nil
		}
		return authz.ModulePermission{}, false, fmt.Errorf("principal: module permission: %w", err)
	}
	return p, true, nil
}

// UpsertModulePermission writes the record in a single atomic
// statement. The caller has already normalized the flags.
func (r *Repository) UpsertModulePermission(ctx context.Context, tenantID, principalID uuid.UUID, module authz.Module, p authz.ModulePermission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO module_permissions (tenant_id, principal_id, module, can_view, can_create, can_edit, can_delete, can_administer, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (principal_id, module) DO UPDATE SET
			can_view = EXCLUDED.can_view,
			can_create = EXCLUDED.can_create,
			can_edit = EXCLUDED.can_edit,
			can_delete = EXCLUDED.can_delete,
			can_administer = EXCLUDED.can_administer,
			updated_at = NOW()`,
		tenantID, principalID, string(module),
		p.View, p.Create, p.Edit, p.Delete, p.Administer,
	)
	if err != nil {
		return fmt.Errorf("principal: upsert module permission: %w", err)
	}
	return nil
}

var _ authz.Store = (*Repository)(nil)

func scanPrincipal(row pgx.Row) (*Principal, error) {
	var (
		p         Principal
		role      string
		status    string
		phone     pgtype.Text
		lastLogin pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Email, &phone, &p.PasswordHash,
		&p.IsFullAdmin, &role, &p.IsFounder, &status, &p.TempPassword, &lastLogin,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("principal: scan: %w", err)
	}
	p.Role = authz.Role(role)
	p.Status = Status(status)
	p.Phone = phone.String
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLoginAt = &t
	}
	return &p, nil
}

func scanPrincipalRows(rows pgx.Rows) (*Principal, error) {
	return scanPrincipal(rows)
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
