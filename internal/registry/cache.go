package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ballot-chain/ballot_chain/internal/identity"
)

const cachePrefix = "registry:v1:"

// CachedRegistry is a read-through Redis cache in front of another Registry.
// Records are immutable, so cached entries can never go stale; the cache
// only exists to keep hot lookups off the backing store. Every cache
// failure falls back to the inner registry.
type CachedRegistry struct {
	inner  Registry
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRegistry wraps inner with a Redis read-through cache.
func NewCachedRegistry(inner Registry, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRegistry {
	return &CachedRegistry{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachedRegistry) Get(ctx context.Context, email string) (Record, error) {
	key := cachePrefix + identity.Normalize(email)

	if cached, err := r.cache.Get(ctx, key).Result(); err == nil {
		var record Record
		if err := json.Unmarshal([]byte(cached), &record); err == nil {
			return record, nil
		}
		r.logger.Warn("dropping undecodable cached record", "email", identity.Normalize(email))
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		r.logger.Warn("registry cache lookup failed", "error", err)
	}

	record, err := r.inner.Get(ctx, email)
	if err != nil {
		return Record{}, err
	}
	r.store(ctx, key, record)
	return record, nil
}

func (r *CachedRegistry) Put(ctx context.Context, record Record) error {
	if err := r.inner.Put(ctx, record); err != nil {
		return err
	}
	r.store(ctx, cachePrefix+identity.Normalize(record.Email), record)
	return nil
}

func (r *CachedRegistry) store(ctx context.Context, key string, record Record) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("registry cache store failed", "error", err)
	}
}
