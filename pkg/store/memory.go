package store

import (
	"context"
	"sort"
	"sync"

	"github.com/quellt/boxwood/pkg/errors"
)

// MemoryStore keeps records in process memory. It backs tests and
// single-run serving where persistence across restarts is not needed.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Put stores a record, replacing any existing record with the same id.
func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record needs an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

// Get returns the record with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "scene %q not archived", id)
	}
	cp := *rec
	return &cp, nil
}

// List returns all records newest first, with Root omitted.
func (s *MemoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		cp.Root = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes the record with the given id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "scene %q not archived", id)
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(context.Context) error { return nil }
