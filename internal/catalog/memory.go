package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory catalog for tests and dry runs
type MemoryStore struct {
	mu     sync.RWMutex
	byKey  map[string]*Record
	nextID int64
}

// Ensure MemoryStore implements Catalog
var _ Catalog = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory catalog
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:  make(map[string]*Record),
		nextID: 1,
	}
}

func (m *MemoryStore) FindByNaturalKey(ctx context.Context, key string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) Insert(ctx context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byKey[r.NaturalKey]; exists {
		return fmt.Errorf("duplicate natural key %q", r.NaturalKey)
	}

	now := time.Now().UTC()
	r.ID = m.nextID
	r.CreatedAt = now
	r.UpdatedAt = now
	m.nextID++

	cp := *r
	m.byKey[r.NaturalKey] = &cp
	return nil
}

func (m *MemoryStore) UpdateByNaturalKey(ctx context.Context, key string, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byKey[key]
	if !ok {
		return ErrNotFound
	}

	r.ID = existing.ID
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()

	cp := *r
	delete(m.byKey, key)
	m.byKey[r.NaturalKey] = &cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id int64) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.byKey {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Record
	for _, r := range m.byKey {
		if filter.Matches(r) {
			matched = append(matched, *r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if limit := filter.limit(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
