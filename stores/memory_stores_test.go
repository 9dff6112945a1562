package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oarkflow/catalogaccess"
)

func TestMemoryPermissionCacheGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryPermissionCache(time.Minute)

	if err := cache.Put(ctx, "user-1", "client-1", testPerm("user-1", "client-1"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := cache.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.AccessMode = catalogaccess.AccessNone

	again, err := cache.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.AccessMode != catalogaccess.AccessSelected {
		t.Fatalf("mutating a Get result must not corrupt the cached copy, got %s", again.AccessMode)
	}
}

func TestMemoryPermissionCachePutTTLOverride(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryPermissionCache(time.Minute)

	if err := cache.Put(ctx, "user-1", "client-1", testPerm("user-1", "client-1"), time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := cache.Get(ctx, "user-1"); !errors.Is(err, catalogaccess.ErrCacheMiss) {
		t.Fatalf("expected miss after per-call ttl, got %v", err)
	}
}

func TestMemoryPermissionCacheInvalidateUserClearsTracking(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryPermissionCache(time.Minute)

	if err := cache.Put(ctx, "user-1", "client-1", testPerm("user-1", "client-1"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.InvalidateUser(ctx, "user-1"); err != nil {
		t.Fatalf("invalidate user: %v", err)
	}
	// user moves to another client; a stale member in the old client's set
	// would let InvalidateClient evict the new entry
	if err := cache.Put(ctx, "user-1", "client-2", testPerm("user-1", "client-2"), 0); err != nil {
		t.Fatalf("put after move: %v", err)
	}
	if err := cache.InvalidateClient(ctx, "client-1"); err != nil {
		t.Fatalf("invalidate old client: %v", err)
	}
	if _, err := cache.Get(ctx, "user-1"); err != nil {
		t.Fatalf("entry under the new client must survive, got %v", err)
	}
}
