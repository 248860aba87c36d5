package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// QueryRepository covers the read and purge paths of the audit store.
type QueryRepository interface {
	List(ctx context.Context, tenantID uuid.UUID, filters Filters, limit, offset int) ([]Entry, error)
	Purge(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error)
}

// Result bundles one page of entries with paging metadata.
type Result struct {
	Entries []Entry
	Paging  shared.Pagination
}

// Service exposes audit log queries and the retention purge.
type Service struct {
	repo     QueryRepository
	recorder *Logger
}

// NewService constructs the audit query service. recorder may be nil in
// tests; purges are then not self-audited.
func NewService(repo QueryRepository, recorder *Logger) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// Query returns one page of audit entries for the tenant. It fetches
// one row beyond the page to learn whether a next page exists.
func (s *Service) Query(ctx context.Context, tenantID uuid.UUID, filters Filters) (Result, error) {
	if s.repo == nil {
		return Result{}, errors.New("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	entries, err := s.repo.List(ctx, tenantID, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(entries) > pageSize
	if hasNext {
		entries = entries[:pageSize]
	}
	return Result{
		Entries: entries,
		Paging:  shared.NewPagination(page, pageSize, hasNext),
	}, nil
}

// Purge removes entries older than the given age. The caller must hold
// the full-audit privilege; that check happens at the boundary. The
// purge itself is audited.
func (s *Service) Purge(ctx context.Context, tenantID uuid.UUID, actorID uuid.UUID, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("audit: purge age must be positive")
	}
	before := time.Now().UTC().Add(-olderThan)
	removed, err := s.repo.Purge(ctx, tenantID, before)
	if err != nil {
		return 0, err
	}
	if s.recorder != nil {
		actor := actorID
		s.recorder.Enqueue(Entry{
			TenantID: tenantID,
			ActorID:  &actor,
			Action:   ActionAuditPurged,
			Resource: "audit",
			Detail: map[string]any{
				"older_than": olderThan.String(),
				"removed":    removed,
			},
		})
	}
	return removed, nil
}
