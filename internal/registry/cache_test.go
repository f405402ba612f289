package registry

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ballot-chain/ballot_chain/internal/logging"
)

func setupCache(t *testing.T) (*CachedRegistry, Registry, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := NewMemoryRegistry()
	cached := NewCachedRegistry(inner, client, time.Minute, logging.Discard())

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return cached, inner, cleanup
}

func TestCachedRegistryReadThrough(t *testing.T) {
	cached, inner, cleanup := setupCache(t)
	defer cleanup()
	ctx := context.Background()

	record := testRecord("voter1@example.org")
	if err := inner.Put(ctx, record); err != nil {
		t.Fatalf("seed inner: %v", err)
	}

	got, err := cached.Get(ctx, "voter1@example.org")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccountAddress != record.AccountAddress {
		t.Fatalf("expected %s, got %s", record.AccountAddress, got.AccountAddress)
	}

	// Second read comes from the cache.
	if _, err := cached.Get(ctx, "voter1@example.org"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
}

func TestCachedRegistryPutWritesInner(t *testing.T) {
	cached, inner, cleanup := setupCache(t)
	defer cleanup()
	ctx := context.Background()

	if err := cached.Put(ctx, testRecord("voter2@example.org")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := inner.Get(ctx, "voter2@example.org"); err != nil {
		t.Fatalf("inner missing record: %v", err)
	}
}
