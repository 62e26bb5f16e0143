package store

import (
	"context"
	"sync"
	"time"

	"geotale/pkg/model"
)

// MemoryStore implements Store entirely in memory. Used when no DB_PATH is
// configured (degraded mode) and throughout the tests.
type MemoryStore struct {
	mu        sync.RWMutex
	heard     map[string]map[string]time.Time
	poiCache  map[string][]byte
	exposures []model.ExposureRecord
	tastes    map[string]model.TasteProfile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		heard:    make(map[string]map[string]time.Time),
		poiCache: make(map[string][]byte),
		tastes:   make(map[string]model.TasteProfile),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) LoadHeard(_ context.Context, userKey string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.heard[userKey] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *MemoryStore) MarkHeard(_ context.Context, userKey, poiKey string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.heard[userKey]
	if !ok {
		set = make(map[string]time.Time)
		m.heard[userKey] = set
	}
	if _, exists := set[poiKey]; !exists {
		set[poiKey] = at
	}
	return nil
}

func (m *MemoryStore) GetPOICache(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.poiCache[key]
	return raw, ok
}

func (m *MemoryStore) SetPOICache(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poiCache[key] = val
	return nil
}

func (m *MemoryStore) AppendExposure(_ context.Context, rec *model.ExposureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exposures = append(m.exposures, *rec)
	return nil
}

// Exposures returns a copy of the appended records. Test helper.
func (m *MemoryStore) Exposures() []model.ExposureRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ExposureRecord, len(m.exposures))
	copy(out, m.exposures)
	return out
}

func (m *MemoryStore) GetTaste(_ context.Context, id string) (*model.TasteProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tastes[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemoryStore) SaveTaste(_ context.Context, id string, t model.TasteProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tastes[id] = t
	return nil
}
