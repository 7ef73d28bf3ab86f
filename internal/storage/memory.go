package storage

import (
	"context"
	"fmt"
	"sync"
)

type MemoryBackend struct {
	mu       sync.RWMutex
	records  []Record
	keys     map[string]struct{}
	pageSize int
}

func NewMemoryBackend(pageSize int) *MemoryBackend {
	return &MemoryBackend{keys: make(map[string]struct{}), pageSize: pageSize}
}

func (m *MemoryBackend) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(rec)
	if _, ok := m.keys[k]; ok {
		return fmt.Errorf("%w: %s/%s", ErrDuplicate, rec.SessionID, rec.SortKey)
	}
	m.keys[k] = struct{}{}
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryBackend) Query(ctx context.Context, q Query, token string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	m.mu.RLock()
	snapshot := append([]Record(nil), m.records...)
	m.mu.RUnlock()
	return pageOf(snapshot, q, token, m.pageSize)
}

func (m *MemoryBackend) Close() error { return nil }
