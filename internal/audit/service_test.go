package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockQueryRepo struct {
	entries    []Entry
	lastLimit  int
	lastOffset int
	purged     int64
	lastBefore time.Time
}

func (m *mockQueryRepo) List(ctx context.Context, tenantID uuid.UUID, filters Filters, limit, offset int) ([]Entry, error) {
	m.lastLimit = limit
	m.lastOffset = offset
	if offset >= len(m.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], nil
}

func (m *mockQueryRepo) Purge(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error) {
	m.lastBefore = before
	return m.purged, nil
}

func TestQueryPaging(t *testing.T) {
	repo := &mockQueryRepo{}
	for i := 0; i < 25; i++ {
		repo.entries = append(repo.entries, Entry{ID: uuid.New(), Action: ActionLogin})
	}
	svc := NewService(repo, nil)

	result, err := svc.Query(context.Background(), uuid.New(), Filters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 10)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 11, repo.lastLimit, "fetches one row past the page")

	result, err = svc.Query(context.Background(), uuid.New(), Filters{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 5)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 20, repo.lastOffset)
}

func TestQueryClampsPageSize(t *testing.T) {
	repo := &mockQueryRepo{}
	svc := NewService(repo, nil)

	_, err := svc.Query(context.Background(), uuid.New(), Filters{Page: 1, PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 101, repo.lastLimit)

	_, err = svc.Query(context.Background(), uuid.New(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, 21, repo.lastLimit, "defaults apply when unset")
}

func TestPurgeRejectsNonPositiveAge(t *testing.T) {
	svc := NewService(&mockQueryRepo{}, nil)
	_, err := svc.Purge(context.Background(), uuid.New(), uuid.New(), 0)
	require.Error(t, err)
	_, err = svc.Purge(context.Background(), uuid.New(), uuid.New(), -time.Hour)
	require.Error(t, err)
}

func TestPurgeComputesCutoff(t *testing.T) {
	repo := &mockQueryRepo{purged: 7}
	svc := NewService(repo, nil)

	removed, err := svc.Purge(context.Background(), uuid.New(), uuid.New(), 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)
	expected := time.Now().UTC().Add(-48 * time.Hour)
	assert.WithinDuration(t, expected, repo.lastBefore, time.Minute)
}
