package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Records and snapshots carry nested maps of decimal prices, so both are
// stored as JSONB documents keyed by product_id; decimals serialize as
// JSON numbers with exact precision via shopspring/decimal.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateRecord(ctx context.Context, rec *model.PricingRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ProductID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricing_records (product_id, name, data, created_at, updated_at)
		 VALUES ($1, $2, $3::JSONB, $4, $5)`,
		rec.ProductID, rec.Name, data, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetRecord(ctx context.Context, productID string) (*model.PricingRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM pricing_records WHERE product_id = $1`, productID).
		Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pricing record for product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", productID, err)
	}

	var rec model.PricingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", productID, err)
	}
	return &rec, nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, rec *model.PricingRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ProductID, err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE pricing_records
		 SET name = $2, data = $3::JSONB, updated_at = $4
		 WHERE product_id = $1`,
		rec.ProductID, rec.Name, data, rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pricing record for product %s: %w", rec.ProductID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListRecords(ctx context.Context) ([]model.PricingRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM pricing_records ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PricingRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec model.PricingRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.ProductID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricing_snapshots (product_id, revision, data, computed_at)
		 VALUES ($1, $2, $3::JSONB, $4)
		 ON CONFLICT (product_id)
		 DO UPDATE SET revision = $2, data = $3::JSONB, computed_at = $4`,
		snap.ProductID, snap.Revision, data, snap.ComputedAt,
	)
	return err
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, productID string) (*model.Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM pricing_snapshots WHERE product_id = $1`, productID).
		Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("snapshot for product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", productID, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", productID, err)
	}
	return &snap, nil
}
