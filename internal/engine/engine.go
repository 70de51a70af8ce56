// Package engine runs the ordered recompute pipeline over a pricing record:
//
//	deriveBase → computeCustomerPrices → computeMarketplacePrices →
//	recomputeAllTiers → resyncVariantPrices
//
// One call produces one complete Snapshot. Callers swap the snapshot in
// whole, so no reader ever observes a recompute half-applied. The pipeline
// replaces the original web of reactive watchers with a single pass whose
// ordering is fixed in code.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/pricing"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/tier"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/variant"
)

// Compute derives the full price ladder, tier prices, and variant prices
// for one record, mutating the record's derived tier/variant fields and
// returning the snapshot for revision rev.
//
// Configuration errors (bad category set) abort the pass before anything
// is mutated. Degenerate cost inputs are not an error: the snapshot comes
// back with Uncomputed set, empty ladders, and zero variant prices.
func Compute(rec *model.PricingRecord, rev int64) (*model.Snapshot, error) {
	if err := pricing.ValidateCategories(rec.Categories); err != nil {
		return nil, err
	}

	base := pricing.DeriveBase(rec.BaseCost)
	snap := &model.Snapshot{
		ProductID:         rec.ProductID,
		Revision:          rev,
		BasePrice:         base,
		CustomerPrices:    make(map[string]model.CategoryPrice),
		MarketplacePrices: make(map[string]model.CategoryPrice),
		ComputedAt:        time.Now().UTC(),
	}

	// Category ladder: customer pass, then marketplace pass. Skipped
	// entirely while the base is uncomputed — a zero base must never leak
	// out as a "valid" zero price.
	ladder := make(map[string]decimal.Decimal)
	if base.Computed() {
		customer, marketplace, err := pricing.ComputeCategoryPrices(base.HBNaik, rec.Categories)
		if err != nil {
			return nil, err
		}
		snap.CustomerPrices = customer
		snap.MarketplacePrices = marketplace
		for id, p := range customer {
			ladder[id] = p.RoundedFinalPrice
		}
		for id, p := range marketplace {
			ladder[id] = p.RoundedFinalPrice
		}
	} else {
		snap.Uncomputed = true
	}

	// Every tier — global and all variant scopes — reprices against the
	// fresh ladder, keeping quantity and discount.
	mgr := tier.NewManager(rec)
	mgr.RecomputeAll(func(string) map[string]decimal.Decimal { return ladder }, base.HBNaik)

	// Variant prices snap to the default customer price unless frozen by
	// manual editing.
	defaultPrice := decimal.Zero
	if dp, ok := pricing.DefaultCustomerPrice(rec.Categories, snap.CustomerPrices); ok {
		defaultPrice = dp.RoundedFinalPrice
	}
	rec.Variants = variant.Resync(rec.Variants, defaultPrice, rec.ManualPriceEditing)

	snap.GlobalTiers = copyTiers(visibleTiers(mgr, model.GlobalScope()))
	snap.VariantPrices = make(map[string]model.VariantPriceState, len(rec.Variants))
	for sku, v := range rec.Variants {
		v.Tiers = copyTiers(visibleTiers(mgr, model.VariantScope(sku)))
		snap.VariantPrices[sku] = v
	}
	snap.ReadyToSave = variant.ReadyToSave(rec.Variants)

	return snap, nil
}

// visibleTiers returns a scope's tiers honouring the hidden-when-disabled
// rule. Mirrored variant scopes read their stored mirror directly.
func visibleTiers(mgr *tier.Manager, scope model.TierScope) []model.DiscountTier {
	tiers, err := mgr.Tiers(scope)
	if err != nil {
		return nil
	}
	return tiers
}

// copyTiers deep-copies the tier slice so a swapped-out snapshot stays
// immutable while the record keeps being edited.
func copyTiers(tiers []model.DiscountTier) []model.DiscountTier {
	if tiers == nil {
		return nil
	}
	out := make([]model.DiscountTier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, t.Clone(t.ID))
	}
	return out
}
