package cache

import (
	"context"
	"route-planner-service/internal/domain"
	"sync"
	"time"
)

type memoryItem struct {
	entry domain.CacheEntry
	seq   uint64
}

// MemoryGeocodeStore is an in-process geocode cache bounded by age and size.
// When full, expired entries are swept first and then the oldest-inserted
// entries are evicted.
type MemoryGeocodeStore struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	seq        uint64
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryGeocodeStore creates a store. maxEntries <= 0 means unbounded.
func NewMemoryGeocodeStore(ttl time.Duration, maxEntries int) *MemoryGeocodeStore {
	return &MemoryGeocodeStore{
		items:      make(map[string]memoryItem),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// WithClock replaces the store's time source. Intended for tests.
func (s *MemoryGeocodeStore) WithClock(now func() time.Time) *MemoryGeocodeStore {
	s.now = now
	return s
}

func (s *MemoryGeocodeStore) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	if item.entry.Expired(s.now(), s.ttl) {
		delete(s.items, key)
		return domain.CacheEntry{}, false, nil
	}
	return item.entry, true, nil
}

func (s *MemoryGeocodeStore) Put(_ context.Context, key string, entry domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.StoredAt.IsZero() {
		entry.StoredAt = s.now()
	}

	if _, exists := s.items[key]; !exists && s.maxEntries > 0 && len(s.items) >= s.maxEntries {
		s.sweepLocked()
		for len(s.items) >= s.maxEntries {
			s.evictOldestLocked()
		}
	}

	s.seq++
	s.items[key] = memoryItem{entry: entry, seq: s.seq}
	return nil
}

// Len returns the number of entries held, expired or not.
func (s *MemoryGeocodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryGeocodeStore) sweepLocked() {
	now := s.now()
	for k, item := range s.items {
		if item.entry.Expired(now, s.ttl) {
			delete(s.items, k)
		}
	}
}

func (s *MemoryGeocodeStore) evictOldestLocked() {
	var (
		oldestKey string
		oldestSeq uint64
		found     bool
	)
	for k, item := range s.items {
		if !found || item.seq < oldestSeq {
			oldestKey, oldestSeq, found = k, item.seq, true
		}
	}
	if found {
		delete(s.items, oldestKey)
	}
}

// MemoryRateStore keeps fixed-window counters per client in process memory.
type MemoryRateStore struct {
	mu      sync.Mutex
	records map[string]domain.RateRecord
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{records: make(map[string]domain.RateRecord)}
}

// Hit counts one request for key. A window that has fully elapsed starts over.
func (s *MemoryRateStore) Hit(_ context.Context, key string, now time.Time, window time.Duration) (domain.RateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || now.Sub(rec.WindowStart) > window {
		rec = domain.RateRecord{WindowStart: now, ResetAt: now.Add(window)}
	}
	rec.Count++
	s.records[key] = rec

	s.pruneLocked(now, window)
	return rec, nil
}

// pruneLocked drops stale windows once the table grows.
func (s *MemoryRateStore) pruneLocked(now time.Time, window time.Duration) {
	if len(s.records) < 1024 {
		return
	}
	for k, rec := range s.records {
		if now.Sub(rec.WindowStart) > window {
			delete(s.records, k)
		}
	}
}
