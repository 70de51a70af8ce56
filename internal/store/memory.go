package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]*model.PricingRecord
	snapshots map[string]*model.Snapshot
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]*model.PricingRecord),
		snapshots: make(map[string]*model.Snapshot),
	}
}

func (s *MemoryStore) CreateRecord(_ context.Context, rec *model.PricingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ProductID]; exists {
		return fmt.Errorf("pricing record for product %s already exists", rec.ProductID)
	}
	s.records[rec.ProductID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) GetRecord(_ context.Context, productID string) (*model.PricingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[productID]
	if !ok {
		return nil, fmt.Errorf("pricing record for product %s: %w", productID, ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) UpdateRecord(_ context.Context, rec *model.PricingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ProductID]; !ok {
		return fmt.Errorf("pricing record for product %s: %w", rec.ProductID, ErrNotFound)
	}
	s.records[rec.ProductID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) ListRecords(_ context.Context) ([]model.PricingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.PricingRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, *cloneRecord(rec))
	}
	return records, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snap.ProductID] = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, productID string) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[productID]
	if !ok {
		return nil, fmt.Errorf("snapshot for product %s: %w", productID, ErrNotFound)
	}
	return cloneSnapshot(snap), nil
}

// cloneRecord deep-copies via JSON so callers can never mutate stored state
// through aliased maps or slices. Records are small; the round-trip is cheap.
func cloneRecord(rec *model.PricingRecord) *model.PricingRecord {
	data, _ := json.Marshal(rec)
	var out model.PricingRecord
	_ = json.Unmarshal(data, &out)
	return &out
}

func cloneSnapshot(snap *model.Snapshot) *model.Snapshot {
	data, _ := json.Marshal(snap)
	var out model.Snapshot
	_ = json.Unmarshal(data, &out)
	return &out
}
