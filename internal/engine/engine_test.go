package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/pricing"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/tier"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/variant"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// newTestRecord assembles a record with hand-checkable figures:
// usd=100 × rate=15,000 +5% → hbNaik=1,575,000; retail +20% +11% tax.
func newTestRecord(t *testing.T) *model.PricingRecord {
	t.Helper()
	return &model.PricingRecord{
		ProductID: "prod-1",
		Name:      "Grip Tape",
		BaseCost: model.BaseCost{
			USDPrice:             d(100),
			ExchangeRate:         d(15_000),
			AdjustmentPercentage: d(5),
		},
		Categories: []model.PriceCategory{
			{ID: "retail", Name: "Retail", Kind: model.KindCustomer, Percentage: d(20), TaxPercentage: d(11), IsDefault: true},
			{ID: "wholesale", Name: "Wholesale", Kind: model.KindCustomer, Percentage: d(10), TaxPercentage: d(11)},
			{ID: "shopee", Name: "Shopee", Kind: model.KindMarketplace, Percentage: d(5)},
		},
		TiersEnabled: true,
		Variants: map[string]model.VariantPriceState{
			"SKU-A": {SKU: "SKU-A", Status: true},
			"SKU-B": {SKU: "SKU-B", Status: true},
		},
	}
}

func TestCompute_FullPipeline(t *testing.T) {
	rec := newTestRecord(t)

	snap, err := Compute(rec, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !snap.BasePrice.HBReal.Equal(d(1_500_000)) {
		t.Errorf("hbReal = %s, want 1500000", snap.BasePrice.HBReal)
	}
	if !snap.BasePrice.HBNaik.Equal(d(1_575_000)) {
		t.Errorf("hbNaik = %s, want 1575000", snap.BasePrice.HBNaik)
	}
	if snap.Uncomputed {
		t.Error("snapshot should not be marked uncomputed")
	}
	if len(snap.CustomerPrices) != 2 || len(snap.MarketplacePrices) != 1 {
		t.Fatalf("ladder sizes: customer=%d marketplace=%d", len(snap.CustomerPrices), len(snap.MarketplacePrices))
	}

	// retail: 1,575,000 × 1.2 = 1,890,000; +11% tax = 2,097,900 → rounds up to 2,098,000.
	retail := snap.CustomerPrices["retail"]
	if !retail.RawFinalPrice.Equal(d(2_097_900)) {
		t.Errorf("retail raw = %s, want 2097900", retail.RawFinalPrice)
	}
	if !retail.RoundedFinalPrice.Equal(d(2_098_000)) {
		t.Errorf("retail rounded = %s, want 2098000", retail.RoundedFinalPrice)
	}

	// shopee anchors on retail's rounded price.
	shopee := snap.MarketplacePrices["shopee"]
	if !shopee.RawFinalPrice.Equal(d(2_098_000).Mul(decimal.NewFromFloat(1.05))) {
		t.Errorf("shopee raw = %s", shopee.RawFinalPrice)
	}

	// Variants snapped to the default customer price.
	for sku, v := range snap.VariantPrices {
		if !v.Price.Equal(retail.RoundedFinalPrice) {
			t.Errorf("%s price = %s, want %s", sku, v.Price, retail.RoundedFinalPrice)
		}
	}
	if !snap.ReadyToSave {
		t.Error("all variants priced — snapshot should be ready to save")
	}
	if snap.Revision != 1 {
		t.Errorf("revision = %d, want 1", snap.Revision)
	}
}

func TestCompute_CascadeConsistency(t *testing.T) {
	rec := newTestRecord(t)

	// Seed a tier against the initial prices.
	before, err := Compute(rec, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mgr := tier.NewManager(rec)
	ladder := map[string]decimal.Decimal{}
	for id, p := range before.CustomerPrices {
		ladder[id] = p.RoundedFinalPrice
	}
	if _, err := mgr.Insert(model.GlobalScope(), 10, ladder, before.BasePrice.HBNaik); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mgr.UpdateDiscount(model.GlobalScope(), 0, d(10), ladder, before.BasePrice.HBNaik); err != nil {
		t.Fatalf("discount: %v", err)
	}

	// Upstream change: USD cost doubles. No stale derived field may survive.
	rec.BaseCost.USDPrice = d(200)
	after, err := Compute(rec, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !after.BasePrice.HBReal.Equal(d(3_000_000)) {
		t.Errorf("hbReal = %s, want 3000000", after.BasePrice.HBReal)
	}
	if !after.BasePrice.HBNaik.Equal(d(3_150_000)) {
		t.Errorf("hbNaik = %s, want 3150000", after.BasePrice.HBNaik)
	}
	for id, p := range after.CustomerPrices {
		if p.RoundedFinalPrice.LessThanOrEqual(before.CustomerPrices[id].RoundedFinalPrice) {
			t.Errorf("customer %s did not move with the cost change", id)
		}
	}
	for id, p := range after.MarketplacePrices {
		if p.RoundedFinalPrice.LessThanOrEqual(before.MarketplacePrices[id].RoundedFinalPrice) {
			t.Errorf("marketplace %s did not move with the cost change", id)
		}
	}

	// Tier kept its quantity/discount but repriced against the new ladder.
	if len(after.GlobalTiers) != 1 {
		t.Fatalf("expected 1 global tier, got %d", len(after.GlobalTiers))
	}
	gt := after.GlobalTiers[0]
	if gt.Quantity != 10 || !gt.DiscountPercentage.Equal(d(10)) {
		t.Error("tier quantity/discount must survive the recompute")
	}
	wantRetail := after.CustomerPrices["retail"].RoundedFinalPrice.Mul(decimal.NewFromFloat(0.9))
	if !gt.RawPrices["retail"].Original.Equal(wantRetail) {
		t.Errorf("tier retail raw = %s, want %s", gt.RawPrices["retail"].Original, wantRetail)
	}

	// Variant prices follow the new default price.
	for sku, v := range after.VariantPrices {
		if !v.Price.Equal(after.CustomerPrices["retail"].RoundedFinalPrice) {
			t.Errorf("%s price stale: %s", sku, v.Price)
		}
	}
}

func TestCompute_UncomputedBase(t *testing.T) {
	rec := newTestRecord(t)
	rec.BaseCost.USDPrice = decimal.Zero

	snap, err := Compute(rec, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Uncomputed {
		t.Error("zero cost inputs must mark the snapshot uncomputed")
	}
	if len(snap.CustomerPrices) != 0 || len(snap.MarketplacePrices) != 0 {
		t.Error("uncomputed base must not produce ladder prices")
	}
	for sku, v := range snap.VariantPrices {
		if !v.Price.IsZero() {
			t.Errorf("%s price = %s, want 0", sku, v.Price)
		}
	}
	if snap.ReadyToSave {
		t.Error("zero variant prices must gate saving")
	}
}

func TestCompute_ConfigurationError(t *testing.T) {
	rec := newTestRecord(t)
	rec.Categories[0].IsDefault = false // marketplace left without an anchor

	_, err := Compute(rec, 1)
	if !errors.Is(err, pricing.ErrNoDefaultCategory) {
		t.Errorf("expected ErrNoDefaultCategory, got %v", err)
	}
}

func TestCompute_ConfigurationErrorEvenWhileUncomputed(t *testing.T) {
	rec := newTestRecord(t)
	rec.Categories[0].IsDefault = false
	rec.BaseCost.USDPrice = decimal.Zero

	if _, err := Compute(rec, 1); !errors.Is(err, pricing.ErrNoDefaultCategory) {
		t.Errorf("expected ErrNoDefaultCategory, got %v", err)
	}
}

func TestCompute_ManualEditingFreezeAndResnap(t *testing.T) {
	rec := newTestRecord(t)
	if _, err := Compute(rec, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Toggle manual editing on and hand-edit one variant.
	rec.ManualPriceEditing = true
	rec.Variants["SKU-A"] = variant.SetManualPrice(rec.Variants["SKU-A"], d(1_999_999))

	frozen, err := Compute(rec, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !frozen.VariantPrices["SKU-A"].Price.Equal(d(1_999_999)) {
		t.Errorf("manual price melted during freeze: %s", frozen.VariantPrices["SKU-A"].Price)
	}

	// Toggle off: next recompute resnaps to the current default price.
	rec.ManualPriceEditing = false
	snapped, err := Compute(rec, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := snapped.CustomerPrices["retail"].RoundedFinalPrice
	if !snapped.VariantPrices["SKU-A"].Price.Equal(want) {
		t.Errorf("expected resnap to %s, got %s", want, snapped.VariantPrices["SKU-A"].Price)
	}
}

func TestCompute_SnapshotImmutableAfterSwap(t *testing.T) {
	rec := newTestRecord(t)
	if _, err := Compute(rec, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mgr := tier.NewManager(rec)
	if _, err := mgr.Insert(model.GlobalScope(), 10, map[string]decimal.Decimal{"retail": d(100_000)}, d(90_000)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	snap, err := Compute(rec, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Keep editing the record; the swapped snapshot must not move.
	if err := mgr.UpdateQuantity(model.GlobalScope(), 0, 99); err != nil {
		t.Fatalf("update: %v", err)
	}
	if snap.GlobalTiers[0].Quantity != 10 {
		t.Errorf("snapshot mutated by later edit: quantity = %d", snap.GlobalTiers[0].Quantity)
	}
}

func TestCompute_DisabledTiersHidden(t *testing.T) {
	rec := newTestRecord(t)
	mgr := tier.NewManager(rec)
	if _, err := mgr.Insert(model.GlobalScope(), 10, map[string]decimal.Decimal{}, decimal.Zero); err != nil {
		t.Fatalf("insert: %v", err)
	}
	rec.TiersEnabled = false

	snap, err := Compute(rec, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.GlobalTiers != nil {
		t.Error("disabled tier system must be hidden from the snapshot")
	}
	if len(rec.GlobalTiers) != 1 {
		t.Error("hidden tiers must survive on the record")
	}
}
