package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Redis is a distributed response cache backed by go-redis, grounded on
// manifold's skills.RedisSkillsCache (JSON-marshalled values, TTL set via
// the client's own expiry rather than manual bookkeeping).
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis dials a Redis cache client. ttl <= 0 defaults to one hour, the
// same default manifold's skills cache uses.
func NewRedis(addr, password string, db int, prefix string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ragpipe cache: redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if prefix == "" {
		prefix = "ragpipe:cache:"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *Redis) key(key string) string { return r.prefix + key }

func (r *Redis) Get(ctx context.Context, key string) (domain.CacheEntry, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("ragpipe_cache_redis_get_error")
		}
		return domain.CacheEntry{}, false
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("ragpipe_cache_redis_unmarshal_error")
		return domain.CacheEntry{}, false
	}
	if entry.Expired(time.Now()) {
		return domain.CacheEntry{}, false
	}
	return entry, true
}

func (r *Redis) Put(ctx context.Context, key string, entry domain.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("ragpipe cache: marshal entry: %w", err)
	}
	ttl := r.ttl
	if entry.TTL > 0 {
		ttl = entry.TTL
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("ragpipe cache: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Stats is not tracked server-side by the Redis client; INFO-based
// introspection belongs to ops tooling, not this cache's hot path.
func (r *Redis) Stats() Stats { return Stats{} }

func (r *Redis) Close() error { return r.client.Close() }
