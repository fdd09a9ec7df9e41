package store

import (
	"sync"

	"github.com/airplay2/airplay2/pairing"
)

// MemoryStore is an in-memory PairingStore, suitable for tests and for
// receivers that do not need pairing to survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*pairing.Keys
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*pairing.Keys)}
}

func (s *MemoryStore) Load(deviceID string) (*pairing.Keys, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys, ok := s.entries[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *keys
	return &cp, nil
}

func (s *MemoryStore) Save(deviceID string, keys *pairing.Keys) error {
	cp := *keys
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[deviceID] = &cp
	return nil
}

func (s *MemoryStore) Remove(deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, deviceID)
	return nil
}

func (s *MemoryStore) ListDevices() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}
	return out, nil
}
