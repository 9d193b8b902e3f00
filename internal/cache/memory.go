package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	entry     *Entry
	expiresAt time.Time
}

// MemoryBackend keeps tag versions and entries in process memory
type MemoryBackend struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	versions map[Tag]int64
	entries  map[string]memoryEntry
}

// NewMemoryBackend creates an in-process backend
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		ttl:      ttl,
		now:      time.Now,
		versions: make(map[Tag]int64),
		entries:  make(map[string]memoryEntry),
	}
}

func (b *MemoryBackend) Versions(_ context.Context, tags []Tag) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]int64, len(tags))
	for i, t := range tags {
		out[i] = b.versions[t]
	}
	return out, nil
}

func (b *MemoryBackend) Get(_ context.Context, key string) (*Entry, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	if b.ttl > 0 && b.now().After(e.expiresAt) {
		delete(b.entries, key)
		return nil, false, nil
	}
	return e.entry, true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, entry *Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = memoryEntry{entry: entry, expiresAt: b.now().Add(b.ttl)}
	return nil
}

func (b *MemoryBackend) Invalidate(_ context.Context, tags []Tag) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range tags {
		b.versions[t]++
	}
	return nil
}
