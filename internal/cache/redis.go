package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tagKeyPrefix   = "giftbot:tag:"   // Version counter per tag: giftbot:tag:{tag}
	entryKeyPrefix = "giftbot:entry:" // Cached view: giftbot:entry:{key}
)

// RedisBackend keeps tag versions and entries in Redis
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend creates a backend. Entries expire after ttl; tag counters
// never expire.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

func (b *RedisBackend) Versions(ctx context.Context, tags []Tag) ([]int64, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	keys := make([]string, len(tags))
	for i, t := range tags {
		keys[i] = tagKeyPrefix + string(t)
	}

	values, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read tag versions: %w", err)
	}

	versions := make([]int64, len(tags))
	for i, v := range values {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected tag version type %T", v)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tag version: %w", err)
		}
		versions[i] = n
	}
	return versions, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := b.client.Get(ctx, entryKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := b.client.Set(ctx, entryKeyPrefix+key, data, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (b *RedisBackend) Invalidate(ctx context.Context, tags []Tag) error {
	pipe := b.client.Pipeline()
	for _, t := range tags {
		pipe.Incr(ctx, tagKeyPrefix+string(t))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate tags: %w", err)
	}
	return nil
}
