// Package privcache caches resolved privilege sets per principal so hot
// authorization paths do not recompute them on every call.
package privcache

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
)

// DefaultTTL bounds the staleness window for concurrent readers.
const DefaultTTL = 5 * time.Minute

const defaultSize = 4096

type entry struct {
	role       authz.Role
	privileges authz.PrivilegeSet
}

// Cache is a read-through, role-snapshot-validated privilege cache.
// A cached value is served only while its recorded role still matches
// the principal's current role; a role change makes the entry dead even
// before its TTL runs out.
type Cache struct {
	lru   *expirable.LRU[uuid.UUID, entry]
	group singleflight.Group
}

// New constructs a cache. Non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		lru: expirable.NewLRU[uuid.UUID, entry](defaultSize, nil, ttl),
	}
}

// Get returns the privilege set for the principal, recomputing from the
// static role table when the entry is missing, expired, or recorded
// under a different role. Concurrent misses for the same principal
// collapse into a single recomputation.
func (c *Cache) Get(principalID uuid.UUID, currentRole authz.Role) authz.PrivilegeSet {
	if cached, ok := c.lru.Get(principalID); ok && cached.role == currentRole {
		return cached.privileges
	}
	value, _, _ := c.group.Do(principalID.String(), func() (any, error) {
		fresh := entry{role: currentRole, privileges: authz.PrivilegesOf(currentRole)}
		c.lru.Add(principalID, fresh)
		return fresh.privileges, nil
	})
	return value.(authz.PrivilegeSet)
}

// Invalidate drops the cached entry. Must be called synchronously when
// a role mutation commits so the caller's next read observes the new
// role.
func (c *Cache) Invalidate(principalID uuid.UUID) {
	c.lru.Remove(principalID)
}

// Purge empties the cache entirely.
func (c *Cache) Purge() {
	c.lru.Purge()
}
