package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload Payload
	storedAt time.Time
}

// MemoryStore is the in-process Store backend. All operations take a single
// mutex; hold times are map lookups only, so coarse locking does not
// bottleneck the aggregator's fan-out.
type MemoryStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]memoryEntry

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewMemoryStore creates an in-memory store with the given TTL. When sweep is
// positive a background janitor removes expired entries at that interval;
// expiry is otherwise enforced lazily on read.
func NewMemoryStore(ttl, sweep time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:       ttl,
		items:     make(map[string]memoryEntry),
		sweepStop: make(chan struct{}),
	}
	if sweep > 0 {
		go s.sweeper(sweep)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, source, query string) (Payload, bool) {
	key := Key(source, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	if !ok {
		return Payload{}, false
	}
	if time.Since(entry.storedAt) > s.ttl {
		delete(s.items, key)
		return Payload{}, false
	}
	return entry.payload, true
}

func (s *MemoryStore) Set(_ context.Context, source, query string, payload Payload) {
	key := Key(source, query)

	s.mu.Lock()
	s.items[key] = memoryEntry{payload: payload, storedAt: time.Now()}
	s.mu.Unlock()
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.items = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	s.sweepOnce.Do(func() { close(s.sweepStop) })
	return nil
}

// Len reports the number of live entries, expired or not. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) sweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.sweepStop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.items {
				if now.Sub(entry.storedAt) > s.ttl {
					delete(s.items, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
