package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// Full scan: the store is expected to stay small.
	s.purgeExpired(now)

	rec, ok := s.records[key]
	if !ok {
		rec = Record{ResetAt: now.Add(window)}
	}
	rec.Count++
	s.records[key] = rec

	return rec, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || !s.now().Before(rec.ResetAt) {
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len reports the number of tracked keys, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore) purgeExpired(now time.Time) {
	for key, rec := range s.records {
		if !now.Before(rec.ResetAt) {
			delete(s.records, key)
		}
	}
}
