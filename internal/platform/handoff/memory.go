package handoff

import (
	"context"
	"sync"
	"time"

	"github.com/pujar/labbill/internal/domain/billing"
)

type memorySlot struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded snapshots in process. Records are stored in
// their wire form so a reader never shares memory with the writer.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]memorySlot
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]memorySlot),
		now:   time.Now,
	}
}

// SetClock replaces the clock used for expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) Put(_ context.Context, key string, rec billing.PatientRecord, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	slot := memorySlot{payload: data}
	if ttl > 0 {
		slot.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.slots[key] = slot
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (billing.PatientRecord, error) {
	s.mu.RLock()
	slot, ok := s.slots[key]
	s.mu.RUnlock()

	if !ok || s.expired(slot) {
		return billing.PatientRecord{}, ErrNotFound
	}
	return Decode(slot.payload)
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.slots, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Purge drops expired slots and returns how many were removed.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, slot := range s.slots {
		if s.expired(slot) {
			delete(s.slots, k)
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(slot memorySlot) bool {
	return !slot.expiresAt.IsZero() && !s.now().Before(slot.expiresAt)
}
