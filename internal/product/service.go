// Package product provides the HTTP handlers and orchestration for the
// pricing engine: base cost edits, category configuration, tier operations,
// and variant price management. Every mutation runs one full recompute pass
// and persists the resulting snapshot atomically.
//
// All monetary values use shopspring/decimal — never float64 for money.
package product

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/engine"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/metrics"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/pricing"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/store"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/tier"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/variant"
)

// Service handles pricing operations. Uses a mutex to serialize mutations
// (single-instance). For horizontal scaling, replace with distributed
// locking or database-level optimistic concurrency.
type Service struct {
	store store.Store
	mu    sync.Mutex
	wsHub *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new product pricing service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub) *Service {
	return &Service{store: st, wsHub: hub}
}

// --- Request types ---

// CreateProductRequest is the JSON body for product creation.
type CreateProductRequest struct {
	ProductID  string                `json:"product_id"`
	Name       string                `json:"name"`
	BaseCost   model.BaseCost        `json:"base_cost"`
	Categories []model.PriceCategory `json:"categories"`
	SKUs       []string              `json:"skus"`
}

// UpdateBaseCostRequest is the JSON body for PUT .../base-cost.
type UpdateBaseCostRequest struct {
	USDPrice             decimal.Decimal `json:"usd_price"`
	ExchangeRate         decimal.Decimal `json:"exchange_rate"`
	AdjustmentPercentage decimal.Decimal `json:"adjustment_percentage"`
}

// UpdateCategoriesRequest is the JSON body for PUT .../categories.
type UpdateCategoriesRequest struct {
	Categories []model.PriceCategory `json:"categories"`
}

// AddTierRequest is the JSON body for POST .../tiers. Quantity is optional;
// when omitted the tier lands one step above the scope's current maximum.
type AddTierRequest struct {
	Scope    model.TierScope `json:"scope"`
	Quantity *int64          `json:"quantity,omitempty"`
}

// UpdateTierRequest is the JSON body for PUT .../tiers/{index}. Quantity
// and discount are each optional; supplied fields are applied in order.
type UpdateTierRequest struct {
	Scope              model.TierScope  `json:"scope"`
	Quantity           *int64           `json:"quantity,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
}

// ScopedRequest carries just a tier scope, for DELETE .../tiers/{index}.
type ScopedRequest struct {
	Scope model.TierScope `json:"scope"`
}

// ToggleRequest is the JSON body for the enable/disable endpoints.
type ToggleRequest struct {
	Scope   model.TierScope `json:"scope"`
	Enabled bool            `json:"enabled"`
}

// VariantPriceRequest is the JSON body for PUT .../variants/{sku}/price.
type VariantPriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// VariantStatusRequest is the JSON body for PUT .../variants/{sku}/status.
type VariantStatusRequest struct {
	Status bool `json:"status"`
}

// --- HTTP Handlers ---

// CreateProduct handles POST /api/v1/products
func (s *Service) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID == "" {
		writeError(w, "product_id is required", http.StatusBadRequest)
		return
	}
	if len(req.SKUs) == 0 {
		writeError(w, "at least one variant SKU is required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	rec := &model.PricingRecord{
		ProductID:           req.ProductID,
		Name:                req.Name,
		BaseCost:            req.BaseCost,
		Categories:          req.Categories,
		TiersEnabled:        false,
		VariantTiers:        make(map[string][]model.DiscountTier),
		VariantTiersEnabled: make(map[string]bool),
		Variants:            make(map[string]model.VariantPriceState, len(req.SKUs)),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, sku := range req.SKUs {
		rec.Variants[sku] = model.VariantPriceState{SKU: sku, Status: true}
		rec.VariantTiers[sku] = nil
	}

	snap, err := s.recompute(rec, 1, "create")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.CreateRecord(ctx, rec); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		writeError(w, "failed to persist snapshot", http.StatusInternalServerError)
		return
	}

	slog.Info("product created",
		"product_id", rec.ProductID,
		"name", rec.Name,
		"variants", len(rec.Variants),
		"ready_to_save", snap.ReadyToSave,
	)

	s.broadcast(snap)
	writeJSON(w, http.StatusCreated, snap)
}

// ListProducts handles GET /api/v1/products
func (s *Service) ListProducts(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListRecords(r.Context())
	if err != nil {
		writeError(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []model.PricingRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// GetProduct handles GET /api/v1/products/{productID}
func (s *Service) GetProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetRecord(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, "product not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetPrices handles GET /api/v1/products/{productID}/prices
// Returns the latest computed snapshot.
func (s *Service) GetPrices(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.GetSnapshot(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, "snapshot not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// UpdateBaseCost handles PUT /api/v1/products/{productID}/base-cost
// Changing any cost input cascades through the whole derivation chain.
func (s *Service) UpdateBaseCost(w http.ResponseWriter, r *http.Request) {
	var req UpdateBaseCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mutate(w, r, "base_cost", func(rec *model.PricingRecord) error {
		rec.BaseCost = model.BaseCost{
			USDPrice:             req.USDPrice,
			ExchangeRate:         req.ExchangeRate,
			AdjustmentPercentage: req.AdjustmentPercentage,
		}
		return nil
	})
}

// UpdateCategories handles PUT /api/v1/products/{productID}/categories
// Replaces the category set; the default-category rules are enforced by the
// recompute pass before anything is persisted.
func (s *Service) UpdateCategories(w http.ResponseWriter, r *http.Request) {
	var req UpdateCategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mutate(w, r, "categories", func(rec *model.PricingRecord) error {
		rec.Categories = req.Categories
		return nil
	})
}

// AddTier handles POST /api/v1/products/{productID}/tiers
func (s *Service) AddTier(w http.ResponseWriter, r *http.Request) {
	var req AddTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	scope := normalizeScope(req.Scope)

	s.mutate(w, r, "tier_add", func(rec *model.PricingRecord) error {
		mgr := tier.NewManager(rec)
		ladder, hbNaik := ladderFor(rec)
		var err error
		if req.Quantity != nil {
			_, err = mgr.Insert(scope, *req.Quantity, ladder, hbNaik)
		} else {
			_, err = mgr.Add(scope, ladder, hbNaik)
		}
		if err == nil {
			metrics.TierOpsTotal.WithLabelValues("add").Inc()
		}
		return err
	})
}

// UpdateTier handles PUT /api/v1/products/{productID}/tiers/{index}
func (s *Service) UpdateTier(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, "invalid tier index", http.StatusBadRequest)
		return
	}
	var req UpdateTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == nil && req.DiscountPercentage == nil {
		writeError(w, "quantity or discount_percentage is required", http.StatusBadRequest)
		return
	}
	scope := normalizeScope(req.Scope)

	s.mutate(w, r, "tier_update", func(rec *model.PricingRecord) error {
		mgr := tier.NewManager(rec)
		ladder, hbNaik := ladderFor(rec)
		if req.Quantity != nil {
			if err := mgr.UpdateQuantity(scope, index, *req.Quantity); err != nil {
				return err
			}
		}
		if req.DiscountPercentage != nil {
			if err := mgr.UpdateDiscount(scope, index, *req.DiscountPercentage, ladder, hbNaik); err != nil {
				return err
			}
		}
		metrics.TierOpsTotal.WithLabelValues("update").Inc()
		return nil
	})
}

// RemoveTier handles DELETE /api/v1/products/{productID}/tiers/{index}
func (s *Service) RemoveTier(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, "invalid tier index", http.StatusBadRequest)
		return
	}
	var req ScopedRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // empty body means global scope
	}
	scope := normalizeScope(req.Scope)

	s.mutate(w, r, "tier_remove", func(rec *model.PricingRecord) error {
		if err := tier.NewManager(rec).Remove(scope, index); err != nil {
			return err
		}
		metrics.TierOpsTotal.WithLabelValues("remove").Inc()
		return nil
	})
}

// SetTiersEnabled handles PUT /api/v1/products/{productID}/tiers/enabled
// Disabling hides the scope's tiers but keeps the data.
func (s *Service) SetTiersEnabled(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	scope := normalizeScope(req.Scope)

	s.mutate(w, r, "tier_toggle", func(rec *model.PricingRecord) error {
		return tier.NewManager(rec).SetEnabled(scope, req.Enabled)
	})
}

// SetCustomizePerVariant handles PUT /api/v1/products/{productID}/tiers/customize
// Turning it off discards variant-local tier edits and re-mirrors the
// global set into every variant.
func (s *Service) SetCustomizePerVariant(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mutate(w, r, "tier_customize", func(rec *model.PricingRecord) error {
		tier.NewManager(rec).SetCustomizePerVariant(req.Enabled)
		return nil
	})
}

// SetManualEditing handles PUT /api/v1/products/{productID}/manual-editing
// Turning it on freezes variant prices; turning it off resnaps every
// variant to the default customer price on the same pass.
func (s *Service) SetManualEditing(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mutate(w, r, "manual_editing", func(rec *model.PricingRecord) error {
		rec.ManualPriceEditing = req.Enabled
		return nil
	})
}

// SetVariantPrice handles PUT /api/v1/products/{productID}/variants/{sku}/price
// Only allowed while manual price editing is on.
func (s *Service) SetVariantPrice(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	var req VariantPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mutate(w, r, "variant_price", func(rec *model.PricingRecord) error {
		if !rec.ManualPriceEditing {
			return errManualEditingOff
		}
		v, ok := rec.Variants[sku]
		if !ok {
			return tier.ErrUnknownVariant
		}
		rec.Variants[sku] = variant.SetManualPrice(v, req.Price)
		return nil
	})
}

// SetVariantStatus handles PUT /api/v1/products/{productID}/variants/{sku}/status
// Status is independent of price mode: flipping it never touches the price.
func (s *Service) SetVariantStatus(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	var req VariantStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mutate(w, r, "variant_status", func(rec *model.PricingRecord) error {
		v, ok := rec.Variants[sku]
		if !ok {
			return tier.ErrUnknownVariant
		}
		v.Status = req.Status
		rec.Variants[sku] = v
		return nil
	})
}

// --- Orchestration ---

// errManualEditingOff gates hand-edits on the manual editing switch.
var errManualEditingOff = errors.New("product: manual price editing is not enabled")

// mutate loads the record, applies the edit, runs one full recompute pass,
// and persists record and snapshot together. A failed edit or recompute
// persists nothing.
func (s *Service) mutate(w http.ResponseWriter, r *http.Request, trigger string, apply func(rec *model.PricingRecord) error) {
	productID := chi.URLParam(r, "productID")
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.GetRecord(ctx, productID)
	if err != nil {
		writeError(w, "product not found", http.StatusNotFound)
		return
	}

	if err := apply(rec); err != nil {
		s.writeDomainError(w, err)
		return
	}

	rev := int64(1)
	if prev, err := s.store.GetSnapshot(ctx, productID); err == nil {
		rev = prev.Revision + 1
	}

	snap, err := s.recompute(rec, rev, trigger)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	rec.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateRecord(ctx, rec); err != nil {
		writeError(w, "failed to persist record", http.StatusInternalServerError)
		return
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		writeError(w, "failed to persist snapshot", http.StatusInternalServerError)
		return
	}

	slog.Info("prices recomputed",
		"product_id", productID,
		"trigger", trigger,
		"revision", snap.Revision,
		"uncomputed", snap.Uncomputed,
		"ready_to_save", snap.ReadyToSave,
	)

	s.broadcast(snap)
	writeJSON(w, http.StatusOK, snap)
}

// recompute runs the engine pass with latency and counter instrumentation.
func (s *Service) recompute(rec *model.PricingRecord, rev int64, trigger string) (*model.Snapshot, error) {
	start := time.Now()
	snap, err := engine.Compute(rec, rev)
	if err != nil {
		return nil, err
	}
	metrics.RecomputeLatency.Observe(time.Since(start).Seconds())
	metrics.RecomputesTotal.WithLabelValues(trigger).Inc()

	belowCost := 0
	for _, t := range snap.GlobalTiers {
		if len(t.BelowCost) > 0 {
			belowCost++
		}
	}
	metrics.BelowCostTiers.Set(float64(belowCost))

	return snap, nil
}

// broadcast pushes the recompute result to WebSocket clients.
func (s *Service) broadcast(snap *model.Snapshot) {
	if s.wsHub == nil {
		return
	}
	msg := WSMessage{
		Type:        "prices_recomputed",
		ProductID:   snap.ProductID,
		Revision:    snap.Revision,
		ReadyToSave: snap.ReadyToSave,
		Uncomputed:  snap.Uncomputed,
	}
	// Variants all snap to the default customer price unless frozen, so any
	// one of them carries the headline price for the ticker.
	for _, v := range snap.VariantPrices {
		msg.DefaultPrice = v.Price.String()
		break
	}
	s.wsHub.Broadcast(msg)
}

// ladderFor builds the current category-price map (customer and marketplace,
// rounded finals) for tier pricing. An uncomputed base yields an empty map;
// tier prices then come back zero until the cost inputs are fixed.
func ladderFor(rec *model.PricingRecord) (map[string]decimal.Decimal, decimal.Decimal) {
	base := pricing.DeriveBase(rec.BaseCost)
	ladder := make(map[string]decimal.Decimal)
	if !base.Computed() {
		return ladder, base.HBNaik
	}
	customer, marketplace, err := pricing.ComputeCategoryPrices(base.HBNaik, rec.Categories)
	if err != nil {
		return ladder, base.HBNaik
	}
	for id, p := range customer {
		ladder[id] = p.RoundedFinalPrice
	}
	for id, p := range marketplace {
		ladder[id] = p.RoundedFinalPrice
	}
	return ladder, base.HBNaik
}

// normalizeScope defaults an empty scope to the global tier set.
func normalizeScope(sc model.TierScope) model.TierScope {
	if sc.Kind == "" {
		return model.GlobalScope()
	}
	return sc
}

// writeDomainError maps domain errors to HTTP statuses: rejected inputs are
// 400, missing things 404, state conflicts 409.
func (s *Service) writeDomainError(w http.ResponseWriter, err error) {
	var ve *tier.ValidationError
	switch {
	case errors.As(err, &ve):
		metrics.ValidationRejections.Inc()
		writeError(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, tier.ErrTierNotFound),
		errors.Is(err, tier.ErrUnknownVariant):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, tier.ErrTiersDisabled),
		errors.Is(err, tier.ErrScopeNotCustomized),
		errors.Is(err, errManualEditingOff),
		errors.Is(err, pricing.ErrNoDefaultCategory),
		errors.Is(err, pricing.ErrMultipleDefaultCategories):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
