package rescache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	cache := NewMemoryCache(&Options{DefaultTTL: time.Minute, MaxEntries: 100})
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("expected v, got %s", got)
	}
}

func TestMemoryCacheGetNotFound(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	if _, err := cache.Get(context.Background(), "missing"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(&Options{DefaultTTL: time.Millisecond, MaxEntries: 100, CleanupInterval: time.Hour})
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, err := cache.Get(ctx, "k"); err != ErrKeyNotFound {
		t.Errorf("expected expired key to be ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryCacheEvictsLRUAtCapacity(t *testing.T) {
	cache := NewMemoryCache(&Options{DefaultTTL: time.Minute, MaxEntries: 2, CleanupInterval: time.Hour})
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "a", []byte("1"), 0)
	cache.Set(ctx, "b", []byte("2"), 0)
	cache.Set(ctx, "c", []byte("3"), 0)

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalKeys > 2 {
		t.Errorf("expected eviction to cap entries at 2, got %d", stats.TotalKeys)
	}
}

func TestMemoryCacheClosedRejectsOperations(t *testing.T) {
	cache := NewMemoryCache(nil)
	cache.Close()

	if err := cache.Set(context.Background(), "k", []byte("v"), 0); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
}
