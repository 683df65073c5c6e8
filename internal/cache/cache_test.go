package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
)

func TestLRUCacheBasicOperations(t *testing.T) {
	c := NewLRUCache(10)
	defer c.Close()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "key-1", []byte("value-1"), time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		val, err := c.Get(ctx, "key-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(val) != "value-1" {
			t.Errorf("expected value-1, got %s", val)
		}
	})

	t.Run("MissingKeyIsNilNil", func(t *testing.T) {
		val, err := c.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for missing key, got %s", val)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "key-1", []byte("value-2"), time.Minute)

		val, _ := c.Get(ctx, "key-1")
		if string(val) != "value-2" {
			t.Errorf("expected value-2, got %s", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := c.Delete(ctx, "key-1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		val, _ := c.Get(ctx, "key-1")
		if val != nil {
			t.Errorf("expected nil after delete, got %s", val)
		}
	})
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache(10)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	val, err := c.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected expired entry to be gone, got %s", val)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(3)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("key-%d", i)
		_ = c.Set(ctx, key, []byte("value"), time.Minute)
	}

	size, capacity := c.Stats()
	if size != 3 {
		t.Errorf("expected size 3 after eviction, got %d", size)
	}
	if capacity != 3 {
		t.Errorf("expected capacity 3, got %d", capacity)
	}

	// Oldest entries are evicted first.
	if val, _ := c.Get(ctx, "key-0"); val != nil {
		t.Error("expected key-0 to be evicted")
	}
	if val, _ := c.Get(ctx, "key-4"); val == nil {
		t.Error("expected key-4 to survive")
	}
}

func TestNewFactory(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		c, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 10})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer c.Close()

		if _, ok := c.(*LRUCache); !ok {
			t.Errorf("expected *LRUCache, got %T", c)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
			t.Error("expected error for unsupported cache type")
		}
	})
}
