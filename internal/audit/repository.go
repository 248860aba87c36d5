package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Repository provides PostgreSQL backed persistence for audit entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one entry. Entries are never updated afterwards.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("audit: marshal detail: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_entries (id, tenant_id, actor_id, action, resource, detail, ip, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.TenantID, entry.ActorID, entry.Action, entry.Resource,
		detail, optionalText(entry.IP), optionalText(entry.UserAgent), entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// List returns entries for one tenant matching the filters, newest
// first. limit rows starting at offset.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filters Filters, limit, offset int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, actor_id, action, resource, detail, ip, user_agent, occurred_at
		FROM audit_entries
		WHERE tenant_id = $1
		  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR occurred_at <= $3)
		  AND ($4::uuid IS NULL OR actor_id = $4)
		  AND ($5::text IS NULL OR action = $5)
		  AND ($6::text IS NULL OR resource = $6)
		ORDER BY occurred_at DESC
		LIMIT $7 OFFSET $8`,
		tenantID, optionalTime(filters.From), optionalTime(filters.To),
		filters.ActorID, optionalText(filters.Action), optionalText(filters.Resource),
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListWindow returns every entry for the tenant recorded at or after
// the window start, oldest first. Used by the anomaly scanner.
func (r *Repository) ListWindow(ctx context.Context, tenantID uuid.UUID, from time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, actor_id, action, resource, detail, ip, user_agent, occurred_at
		FROM audit_entries
		WHERE tenant_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at ASC`,
		tenantID, from,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: list window: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Purge deletes entries for the tenant older than the cutoff and
// returns how many rows went away.
func (r *Repository) Purge(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM audit_entries WHERE tenant_id = $1 AND occurred_at < $2`,
		tenantID, before,
	)
	if err != nil {
		return 0, fmt.Errorf("audit: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TenantTimezone reads the IANA timezone stored on the tenant. The
// off-hours heuristic is evaluated in tenant-local time.
func (r *Repository) TenantTimezone(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var tz string
	err := r.pool.QueryRow(ctx, `SELECT timezone FROM tenants WHERE id = $1`, tenantID).Scan(&tz)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", fmt.Errorf("audit: tenant timezone: %w", err)
	}
	return tz, nil
}

// TenantIDs lists every tenant, for the periodic scan job.
func (r *Repository) TenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("audit: tenant ids: %w", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("audit: scan tenant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry  Entry
			detail []byte
			ip     pgtype.Text
			ua     pgtype.Text
		)
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.ActorID, &entry.Action,
			&entry.Resource, &detail, &ip, &ua, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		if len(detail) > 0 {
			_ = json.Unmarshal(detail, &entry.Detail)
		}
		entry.IP = ip.String
		entry.UserAgent = ua.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}

func optionalTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
