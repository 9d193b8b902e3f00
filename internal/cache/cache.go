// Package cache implements a read-through cache invalidated by tags.
//
// Every tag has a version counter. An entry stores the versions that were
// current before its loader ran and is only served while all of them are
// unchanged, so a write that lands during a load can never be masked by the
// entry that load produces. Invalidation bumps the counters; nothing is
// deleted eagerly.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/metrics"
)

// Entry is a cached value together with the tag versions it was built at
type Entry struct {
	Versions map[Tag]int64   `json:"versions"`
	Payload  json.RawMessage `json:"payload"`
}

// Backend stores tag versions and entries
type Backend interface {
	// Versions returns the current version of every tag, in order. Unknown
	// tags are at version 0.
	Versions(ctx context.Context, tags []Tag) ([]int64, error)
	// Get returns the entry stored under key; ok is false on a miss.
	Get(ctx context.Context, key string) (entry *Entry, ok bool, err error)
	Set(ctx context.Context, key string, entry *Entry) error
	// Invalidate increments the version of every tag.
	Invalidate(ctx context.Context, tags []Tag) error
}

// Cache is the read-through cache used by the services. A nil *Cache is
// valid and always calls the loader.
type Cache struct {
	backend Backend
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// New creates a cache on top of backend
func New(backend Backend, logger *logrus.Logger, m *metrics.Metrics) *Cache {
	return &Cache{backend: backend, logger: logger, metrics: m}
}

// Key builds a cache key from a view name and its parameters
func Key(view string, params ...any) string {
	key := view
	for _, p := range params {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Invalidate bumps every tag. Failures are logged: the entry point has
// already committed the mutation and cannot undo it.
func (c *Cache) Invalidate(ctx context.Context, tags []Tag) {
	if c == nil || len(tags) == 0 {
		return
	}
	tags = Dedupe(tags)
	if err := c.backend.Invalidate(ctx, tags); err != nil {
		c.logger.WithError(err).WithField("tags", tags).Error("Failed to invalidate cache tags")
		return
	}
	c.metrics.CacheInvalidated(len(tags))
	c.logger.WithField("tags", tags).Debug("Cache tags invalidated")
}

func (c *Cache) degraded(step, key string, err error) {
	c.metrics.CacheLookup("error")
	c.logger.WithError(err).WithFields(logrus.Fields{
		"step": step,
		"key":  key,
	}).Warn("Cache unavailable, reading from store")
}

func (e *Entry) current(tags []Tag, versions []int64) bool {
	if len(e.Versions) != len(tags) {
		return false
	}
	for i, t := range tags {
		v, ok := e.Versions[t]
		if !ok || v != versions[i] {
			return false
		}
	}
	return true
}

// Fetch returns the cached value for key when it is still current for tags,
// and otherwise runs load and stores its result. Cache failures never fail
// the read.
func Fetch[T any](ctx context.Context, c *Cache, key string, tags []Tag, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	tags = Dedupe(tags)

	versions, err := c.backend.Versions(ctx, tags)
	if err != nil {
		c.degraded("versions", key, err)
		return load(ctx)
	}

	entry, ok, err := c.backend.Get(ctx, key)
	switch {
	case err != nil:
		c.degraded("get", key, err)
	case ok && entry.current(tags, versions):
		var out T
		if err := json.Unmarshal(entry.Payload, &out); err == nil {
			c.metrics.CacheLookup("hit")
			return out, nil
		}
		c.logger.WithField("key", key).Warn("Discarding undecodable cache entry")
		c.metrics.CacheLookup("miss")
	default:
		c.metrics.CacheLookup("miss")
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to encode cache entry")
		return value, nil
	}

	stored := &Entry{Versions: make(map[Tag]int64, len(tags)), Payload: payload}
	for i, t := range tags {
		stored.Versions[t] = versions[i]
	}
	if err := c.backend.Set(ctx, key, stored); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to store cache entry")
	}
	return value, nil
}
