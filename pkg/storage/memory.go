package storage

import (
	"errors"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory. It is safe for concurrent
// use. Data is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryStore creates an in-memory store without expiration.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithTTL(0)
}

// NewMemoryStoreWithTTL creates an in-memory store whose snapshots are
// treated as missing once older than ttl. A ttl <= 0 disables expiration.
func NewMemoryStoreWithTTL(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]Snapshot),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Put stores snap as the latest snapshot for its device.
func (m *MemoryStore) Put(snap Snapshot) error {
	if snap.Device == "" {
		return errors.New("snapshot device cannot be empty")
	}

	m.mu.Lock()
	m.snapshots[snap.Device] = cloneSnapshot(snap)
	m.mu.Unlock()

	return nil
}

// GetLatest returns the latest snapshot for device.
func (m *MemoryStore) GetLatest(device string) (Snapshot, bool, error) {
	m.mu.RLock()
	snap, ok := m.snapshots[device]
	m.mu.RUnlock()

	if !ok {
		return Snapshot{}, false, nil
	}
	if m.ttl > 0 && m.now().Sub(snap.GeneratedAt) > m.ttl {
		return Snapshot{}, false, nil
	}

	return cloneSnapshot(snap), true, nil
}

// cloneSnapshot copies the tail slices so callers cannot alias stored data.
func cloneSnapshot(s Snapshot) Snapshot {
	s.IRTail = append([]float64(nil), s.IRTail...)
	s.SpO2Tail = append([]float64(nil), s.SpO2Tail...)
	return s
}
