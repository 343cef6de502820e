package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// MemoryStore is an in-process CounterStore. Keys are spread over
// sharded mutex-guarded maps so unrelated callers do not serialize on
// one lock. Correct only within a single running instance; use
// RedisStore when more than one gateway runs.
type MemoryStore struct {
	shards  [shardCount]*memoryShard
	stopC   chan struct{}
	stopped sync.Once
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{stopC: make(chan struct{})}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]*memoryEntry)}
	}

	go s.janitor()

	return s
}

func (s *MemoryStore) shardFor(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()
	shard := s.shardFor(key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		// Fresh window
		entry = &memoryEntry{count: 1, expiresAt: now.Add(window)}
		shard.entries[key] = entry
		return 1, entry.expiresAt, nil
	}

	entry.count++
	return entry.count, entry.expiresAt, nil
}

// janitor periodically drops expired entries so idle keys do not
// accumulate forever.
func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stopC:
			return
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	for _, shard := range s.shards {
		shard.mu.Lock()
		for key, entry := range shard.entries {
			if !now.Before(entry.expiresAt) {
				delete(shard.entries, key)
			}
		}
		shard.mu.Unlock()
	}
}

// Stop terminates the janitor goroutine.
func (s *MemoryStore) Stop() {
	s.stopped.Do(func() { close(s.stopC) })
}
