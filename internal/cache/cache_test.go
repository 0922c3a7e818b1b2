package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopCacheNeverHits(t *testing.T) {
	c := NoopProjectionCache{}
	ctx := context.Background()
	if err := c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var dst map[string]int
	found, err := c.Get(ctx, "k", &dst)
	if err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}
}

func TestMemoryLockerIsExclusiveUntilReleased(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()
	key := ExportLockKey("T1")

	release, err := l.Obtain(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}
	if _, err := l.Obtain(ctx, key, time.Minute); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, err := l.Obtain(ctx, ExportLockKey("T2"), time.Minute); err != nil {
		t.Fatalf("other tenant should not be blocked: %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := l.Obtain(ctx, key, time.Minute); err != nil {
		t.Fatalf("obtain after release: %v", err)
	}
}

func TestMemoryLockerExpires(t *testing.T) {
	l := NewMemoryLocker()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	stale, err := l.Obtain(ctx, "k", time.Second)
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}
	now = now.Add(2 * time.Second)
	if _, err := l.Obtain(ctx, "k", time.Second); err != nil {
		t.Fatalf("expected expired lock to be reclaimable: %v", err)
	}
	_ = stale(ctx)
	if _, err := l.Obtain(ctx, "k", time.Second); !errors.Is(err, ErrLocked) {
		t.Fatalf("stale release must not drop the new holder, got %v", err)
	}
}

func TestDashboardKeys(t *testing.T) {
	if DashboardKey("T1", "2024-03-01") != "dashboard:T1:2024-03-01" {
		t.Fatalf("unexpected key %q", DashboardKey("T1", "2024-03-01"))
	}
	if DashboardPattern("T1") != "dashboard:T1:*" {
		t.Fatalf("unexpected pattern %q", DashboardPattern("T1"))
	}
}
