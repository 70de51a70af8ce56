package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func customerCat(id string, pct, tax int64, isDefault bool) model.PriceCategory {
	return model.PriceCategory{
		ID:            id,
		Name:          id,
		Kind:          model.KindCustomer,
		Percentage:    d(pct),
		TaxPercentage: d(tax),
		IsDefault:     isDefault,
	}
}

func marketplaceCat(id string, pct int64) model.PriceCategory {
	return model.PriceCategory{
		ID:         id,
		Name:       id,
		Kind:       model.KindMarketplace,
		Percentage: d(pct),
	}
}

// --- Base derivation ---

func TestDeriveBase_Basic(t *testing.T) {
	// usd=100, rate=15000, adj=5% → hbReal=1,500,000, hbNaik=1,575,000.
	base := DeriveBase(model.BaseCost{
		USDPrice:             d(100),
		ExchangeRate:         d(15000),
		AdjustmentPercentage: d(5),
	})
	if !base.HBReal.Equal(d(1_500_000)) {
		t.Errorf("hbReal = %s, want 1500000", base.HBReal)
	}
	if !base.HBNaik.Equal(d(1_575_000)) {
		t.Errorf("hbNaik = %s, want 1575000", base.HBNaik)
	}
	if !base.Computed() {
		t.Error("base should report computed")
	}
}

func TestDeriveBase_RoundsToIntegerUnits(t *testing.T) {
	base := DeriveBase(model.BaseCost{
		USDPrice:             decimal.NewFromFloat(1.337),
		ExchangeRate:         d(15500),
		AdjustmentPercentage: d(3),
	})
	// 1.337 × 15500 = 20723.5 → 20724 (decimal.Round is half away from zero).
	if !base.HBReal.Equal(d(20724)) {
		t.Errorf("hbReal = %s, want 20724", base.HBReal)
	}
	// 20724 × 1.03 = 21345.72 → 21346.
	if !base.HBNaik.Equal(d(21346)) {
		t.Errorf("hbNaik = %s, want 21346", base.HBNaik)
	}
}

func TestDeriveBase_DegenerateInputs(t *testing.T) {
	tests := []struct {
		name string
		cost model.BaseCost
	}{
		{"zero usd", model.BaseCost{USDPrice: d(0), ExchangeRate: d(15000)}},
		{"negative usd", model.BaseCost{USDPrice: d(-10), ExchangeRate: d(15000)}},
		{"zero rate", model.BaseCost{USDPrice: d(100), ExchangeRate: d(0)}},
		{"negative rate", model.BaseCost{USDPrice: d(100), ExchangeRate: d(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := DeriveBase(tt.cost)
			if !base.HBReal.IsZero() || !base.HBNaik.IsZero() {
				t.Errorf("expected zero base, got real=%s naik=%s", base.HBReal, base.HBNaik)
			}
			if base.Computed() {
				t.Error("degenerate base must report uncomputed")
			}
		})
	}
}

// --- Customer category pricing ---

func TestCalcCustomerPrice_WorkedFigures(t *testing.T) {
	// markup=20%, tax=11% against hbNaik=1,000,000.
	price, err := CalcCustomerPrice(d(1_000_000), customerCat("retail", 20, 11, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.BasePrice.Equal(d(1_200_000)) {
		t.Errorf("basePrice = %s, want 1200000", price.BasePrice)
	}
	if !price.TaxAmount.Equal(d(132_000)) {
		t.Errorf("taxAmount = %s, want 132000", price.TaxAmount)
	}
	if !price.RawFinalPrice.Equal(d(1_332_000)) {
		t.Errorf("rawFinalPrice = %s, want 1332000", price.RawFinalPrice)
	}
	// 1,332,000 is a multiple of 1000 past the million mark — unchanged.
	if !price.RoundedFinalPrice.Equal(d(1_332_000)) {
		t.Errorf("roundedFinalPrice = %s, want 1332000", price.RoundedFinalPrice)
	}
}

func TestCalcCustomerPrice_CustomPercentage(t *testing.T) {
	cat := customerCat("wholesale", 20, 11, false)
	cat.UseCustom = true
	cat.CustomPercentage = d(35)

	price, err := CalcCustomerPrice(d(1_000_000), cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.MarkupPercentage.Equal(d(35)) {
		t.Errorf("markup = %s, want the custom 35", price.MarkupPercentage)
	}
	if !price.BasePrice.Equal(d(1_350_000)) {
		t.Errorf("basePrice = %s, want 1350000", price.BasePrice)
	}
}

func TestCalcCustomerPrice_WrongKind(t *testing.T) {
	_, err := CalcCustomerPrice(d(1000), marketplaceCat("shopee", 5))
	if !errors.Is(err, ErrNotCustomerCategory) {
		t.Errorf("expected ErrNotCustomerCategory, got %v", err)
	}
}

// --- Marketplace category pricing ---

func TestCalcMarketplacePrice_AnchorsOnRoundedDefault(t *testing.T) {
	defaultPrice := model.CategoryPrice{
		CategoryID:        "retail",
		RawFinalPrice:     d(1_332_000),
		RoundedFinalPrice: d(1_332_000),
	}

	price, err := CalcMarketplacePrice(defaultPrice, marketplaceCat("shopee", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1,332,000 × 1.05 = 1,398,600 → multiple of 100 but not of 1000 → up to 1,399,000.
	if !price.RawFinalPrice.Equal(d(1_398_600)) {
		t.Errorf("rawFinalPrice = %s, want 1398600", price.RawFinalPrice)
	}
	if !price.RoundedFinalPrice.Equal(d(1_399_000)) {
		t.Errorf("roundedFinalPrice = %s, want 1399000", price.RoundedFinalPrice)
	}
	// Tax is not reapplied.
	if !price.TaxAmount.IsZero() {
		t.Errorf("taxAmount = %s, want 0", price.TaxAmount)
	}
}

func TestCalcMarketplacePrice_WrongKind(t *testing.T) {
	_, err := CalcMarketplacePrice(model.CategoryPrice{}, customerCat("retail", 20, 11, true))
	if !errors.Is(err, ErrNotMarketplaceCategory) {
		t.Errorf("expected ErrNotMarketplaceCategory, got %v", err)
	}
}

// --- Two-pass ladder ---

func TestComputeCategoryPrices_TwoPass(t *testing.T) {
	cats := []model.PriceCategory{
		marketplaceCat("shopee", 5), // listed first on purpose; customer pass still runs first
		customerCat("retail", 20, 11, true),
		customerCat("wholesale", 10, 11, false),
	}

	customer, marketplace, err := ComputeCategoryPrices(d(1_000_000), cats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(customer) != 2 {
		t.Fatalf("expected 2 customer prices, got %d", len(customer))
	}
	if len(marketplace) != 1 {
		t.Fatalf("expected 1 marketplace price, got %d", len(marketplace))
	}

	// Marketplace must be anchored on retail's rounded final price.
	want := customer["retail"].RoundedFinalPrice.Mul(decimal.NewFromFloat(1.05))
	if !marketplace["shopee"].RawFinalPrice.Equal(want) {
		t.Errorf("marketplace raw = %s, want %s", marketplace["shopee"].RawFinalPrice, want)
	}
}

func TestComputeCategoryPrices_NoDefault(t *testing.T) {
	cats := []model.PriceCategory{
		customerCat("retail", 20, 11, false),
		marketplaceCat("shopee", 5),
	}

	_, _, err := ComputeCategoryPrices(d(1_000_000), cats)
	if !errors.Is(err, ErrNoDefaultCategory) {
		t.Errorf("expected ErrNoDefaultCategory, got %v", err)
	}
}

func TestComputeCategoryPrices_NoMarketplaceNoDefaultOK(t *testing.T) {
	// Without marketplace categories a missing default is not a config error.
	cats := []model.PriceCategory{customerCat("retail", 20, 11, false)}

	customer, marketplace, err := ComputeCategoryPrices(d(1_000_000), cats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(customer) != 1 || len(marketplace) != 0 {
		t.Errorf("unexpected ladder sizes: customer=%d marketplace=%d", len(customer), len(marketplace))
	}
}

func TestValidateCategories(t *testing.T) {
	tests := []struct {
		name    string
		cats    []model.PriceCategory
		wantErr error
	}{
		{"valid", []model.PriceCategory{customerCat("r", 20, 11, true), marketplaceCat("s", 5)}, nil},
		{"no marketplace no default", []model.PriceCategory{customerCat("r", 20, 11, false)}, nil},
		{"marketplace without default", []model.PriceCategory{customerCat("r", 20, 11, false), marketplaceCat("s", 5)}, ErrNoDefaultCategory},
		{"two defaults", []model.PriceCategory{customerCat("r", 20, 11, true), customerCat("w", 10, 11, true)}, ErrMultipleDefaultCategories},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCategories(tt.cats); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCategories = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultCustomerPrice(t *testing.T) {
	cats := []model.PriceCategory{
		customerCat("retail", 20, 11, true),
		customerCat("wholesale", 10, 11, false),
	}
	customer, _, err := ComputeCategoryPrices(d(1_000_000), cats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	price, ok := DefaultCustomerPrice(cats, customer)
	if !ok {
		t.Fatal("expected default price to be found")
	}
	if price.CategoryID != "retail" {
		t.Errorf("default price category = %s, want retail", price.CategoryID)
	}

	_, ok = DefaultCustomerPrice([]model.PriceCategory{customerCat("w", 10, 11, false)}, customer)
	if ok {
		t.Error("expected no default for ladder without a default category")
	}
}
