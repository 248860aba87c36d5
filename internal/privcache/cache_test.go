package privcache

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
)

func TestGetResolvesFromRoleTable(t *testing.T) {
	c := New(time.Minute)
	id := uuid.New()

	set := c.Get(id, authz.RoleAdmin)
	if !set.UserManagement || set.SystemConfig {
		t.Fatalf("unexpected privilege set for admin: %+v", set)
	}
}

func TestRoleChangeMakesCachedEntryDead(t *testing.T) {
	c := New(time.Minute)
	id := uuid.New()

	before := c.Get(id, authz.RoleStaff)
	if before.UserManagement {
		t.Fatalf("staff must not hold user management")
	}

	// Same principal, new role: the stale snapshot must not be served
	// even though its TTL has not run out.
	after := c.Get(id, authz.RoleManager)
	if !after.UserManagement {
		t.Fatalf("manager privileges expected after role change")
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	c := New(time.Minute)
	id := uuid.New()

	c.Get(id, authz.RoleOwner)
	if !c.lru.Contains(id) {
		t.Fatalf("expected entry after read")
	}
	c.Invalidate(id)
	if c.lru.Contains(id) {
		t.Fatalf("expected entry dropped after invalidation")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New(20 * time.Millisecond)
	id := uuid.New()

	c.Get(id, authz.RoleOwner)
	// The expirable LRU sweeps one of 100 buckets per TTL/100 tick; on
	// coarse-timer hosts a full sweep can take well over the TTL, so
	// leave a generous margin before asserting expiry.
	time.Sleep(300 * time.Millisecond)

	if c.lru.Contains(id) {
		t.Fatalf("expected entry expired after TTL")
	}
}

func TestConcurrentReadsAreConsistent(t *testing.T) {
	c := New(time.Minute)
	id := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set := c.Get(id, authz.RoleManager)
			if !set.UserManagement || set.CompanyConfig {
				t.Errorf("inconsistent set under concurrency: %+v", set)
			}
		}()
	}
	wg.Wait()
}
