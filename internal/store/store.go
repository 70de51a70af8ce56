// Package store defines the persistence interface for the pricing engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
)

// ErrNotFound is returned when a record or snapshot does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. Records hold the editable pricing
// inputs; snapshots hold the derived state of the latest recompute pass.
type Store interface {
	// --- Pricing records ---

	// CreateRecord persists a new pricing record.
	CreateRecord(ctx context.Context, rec *model.PricingRecord) error

	// GetRecord retrieves a record by product ID.
	GetRecord(ctx context.Context, productID string) (*model.PricingRecord, error)

	// UpdateRecord replaces an existing record.
	UpdateRecord(ctx context.Context, rec *model.PricingRecord) error

	// ListRecords returns all pricing records.
	ListRecords(ctx context.Context) ([]model.PricingRecord, error)

	// --- Computed snapshots ---

	// SaveSnapshot stores the latest derived snapshot for a product,
	// replacing any earlier revision.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error

	// GetSnapshot retrieves the latest snapshot for a product.
	GetSnapshot(ctx context.Context, productID string) (*model.Snapshot, error)
}
