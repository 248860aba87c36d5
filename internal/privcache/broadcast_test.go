package privcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
)

func TestBroadcastInvalidatesPeerInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	local := NewBroadcast(New(time.Minute), client, nil)
	remoteCache := New(time.Minute)
	remote := NewBroadcast(remoteCache, client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go remote.Listen(ctx)

	// Give the subscriber a moment to attach before publishing.
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("*")) > 0
	}, time.Second, 10*time.Millisecond)

	id := uuid.New()
	remoteCache.Get(id, authz.RoleOwner)
	require.True(t, remoteCache.lru.Contains(id))

	local.Invalidate(id)

	require.Eventually(t, func() bool {
		return !remoteCache.lru.Contains(id)
	}, time.Second, 10*time.Millisecond)
}

func TestBroadcastWithoutRedisStaysLocal(t *testing.T) {
	b := NewBroadcast(New(time.Minute), nil, nil)
	id := uuid.New()

	set := b.Get(id, authz.RoleAdmin)
	require.True(t, set.UserManagement)

	// Must not panic and must still drop the local entry.
	b.Invalidate(id)
	require.False(t, b.Get(id, authz.RoleStaff).UserManagement)
}
