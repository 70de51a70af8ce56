package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, refresh cache) ---

func (s *CachedStore) CreateRecord(ctx context.Context, rec *model.PricingRecord) error {
	if err := s.primary.CreateRecord(ctx, rec); err != nil {
		return err
	}
	s.cacheSet(ctx, recordKey(rec.ProductID), rec)
	return nil
}

func (s *CachedStore) UpdateRecord(ctx context.Context, rec *model.PricingRecord) error {
	if err := s.primary.UpdateRecord(ctx, rec); err != nil {
		return err
	}
	// Invalidate; next read re-populates.
	s.rdb.Del(ctx, recordKey(rec.ProductID))
	return nil
}

func (s *CachedStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if err := s.primary.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	s.cacheSet(ctx, snapshotKey(snap.ProductID), snap)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetRecord(ctx context.Context, productID string) (*model.PricingRecord, error) {
	data, err := s.rdb.Get(ctx, recordKey(productID)).Bytes()
	if err == nil {
		var rec model.PricingRecord
		if json.Unmarshal(data, &rec) == nil {
			return &rec, nil
		}
	}

	rec, err := s.primary.GetRecord(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, recordKey(productID), rec)
	return rec, nil
}

func (s *CachedStore) GetSnapshot(ctx context.Context, productID string) (*model.Snapshot, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(productID)).Bytes()
	if err == nil {
		var snap model.Snapshot
		if json.Unmarshal(data, &snap) == nil {
			return &snap, nil
		}
	}

	snap, err := s.primary.GetSnapshot(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, snapshotKey(productID), snap)
	return snap, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListRecords(ctx context.Context) ([]model.PricingRecord, error) {
	return s.primary.ListRecords(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheSet(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func recordKey(id string) string   { return fmt.Sprintf("pricing:record:%s", id) }
func snapshotKey(id string) string { return fmt.Sprintf("pricing:snapshot:%s", id) }
