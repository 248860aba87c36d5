package privcache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
)

// DefaultChannel is the pub/sub channel invalidations travel on.
const DefaultChannel = "privcache:invalidate"

// Broadcast layers cross-instance invalidation on top of a local Cache.
// Role mutations commit on one instance but every instance holds its
// own LRU, so the mutating instance drops its entry synchronously and
// publishes the principal id for the others to do the same. The TTL
// remains the staleness backstop if a message is lost.
type Broadcast struct {
	cache   *Cache
	rdb     *redis.Client
	channel string
	log     *slog.Logger
}

// NewBroadcast wraps cache with pub/sub fanout. rdb may be nil, in
// which case invalidation stays local.
func NewBroadcast(cache *Cache, rdb *redis.Client, log *slog.Logger) *Broadcast {
	return &Broadcast{cache: cache, rdb: rdb, channel: DefaultChannel, log: log}
}

// Get delegates to the local cache.
func (b *Broadcast) Get(principalID uuid.UUID, currentRole authz.Role) authz.PrivilegeSet {
	return b.cache.Get(principalID, currentRole)
}

// Invalidate drops the local entry immediately, then tells the other
// instances. The local drop never waits on redis.
func (b *Broadcast) Invalidate(principalID uuid.UUID) {
	b.cache.Invalidate(principalID)
	if b.rdb == nil {
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, principalID.String()).Err(); err != nil && b.log != nil {
		b.log.Warn("privilege cache publish",
			slog.String("principal_id", principalID.String()),
			slog.Any("error", err),
		)
	}
}

// Listen consumes invalidations published by other instances until the
// context is cancelled. Dropping an entry twice is harmless, so the
// publisher's own messages need no filtering.
func (b *Broadcast) Listen(ctx context.Context) {
	if b.rdb == nil {
		return
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			id, err := uuid.Parse(msg.Payload)
			if err != nil {
				continue
			}
			b.cache.Invalidate(id)
		}
	}
}
