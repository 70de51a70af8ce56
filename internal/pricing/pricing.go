// Package pricing derives the base cost prices (HB Real, HB Naik) and the
// customer/marketplace category price ladder.
//
// Derivation is strictly ordered: base → customer prices → marketplace
// prices. Marketplace categories are priced off the default customer
// category's rounded final price, so customer prices must always be
// recomputed first.
//
// All monetary values use shopspring/decimal — never float64 for money.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/rounding"
)

var (
	// ErrNoDefaultCategory is returned when a marketplace price is requested
	// but no customer category is marked as default. This is upstream
	// misconfiguration, not a bad user edit, and is never silently zeroed.
	ErrNoDefaultCategory = errors.New("pricing: no default customer category configured")

	// ErrNotCustomerCategory is returned when a customer-price calculation
	// is attempted against a marketplace category, or vice versa.
	ErrNotCustomerCategory = errors.New("pricing: category is not a customer category")

	// ErrNotMarketplaceCategory is the marketplace-side counterpart.
	ErrNotMarketplaceCategory = errors.New("pricing: category is not a marketplace category")

	// ErrMultipleDefaultCategories is returned when more than one customer
	// category claims to be the default anchor.
	ErrMultipleDefaultCategories = errors.New("pricing: more than one default customer category configured")
)

var oneHundred = decimal.NewFromInt(100)

// DeriveBase computes HB Real and HB Naik from the raw cost inputs.
// Both are pure functions of the inputs; callers must never cache them
// across input changes.
//
//	hbReal = round(usdPrice × exchangeRate)
//	hbNaik = round(hbReal × (1 + adjustment%/100))
//
// Zero or negative usdPrice/exchangeRate yields HBReal = 0, which downstream
// code treats as "uncomputed" (see model.BasePrice.Computed).
func DeriveBase(cost model.BaseCost) model.BasePrice {
	if !cost.USDPrice.IsPositive() || !cost.ExchangeRate.IsPositive() {
		return model.BasePrice{HBReal: decimal.Zero, HBNaik: decimal.Zero}
	}

	hbReal := cost.USDPrice.Mul(cost.ExchangeRate).Round(0)
	factor := decimal.NewFromInt(1).Add(cost.AdjustmentPercentage.Div(oneHundred))
	hbNaik := hbReal.Mul(factor).Round(0)

	return model.BasePrice{HBReal: hbReal, HBNaik: hbNaik}
}

// CalcCustomerPrice prices one customer category from HB Naik:
//
//	basePrice = round(hbNaik × (1 + markup%/100))
//	taxAmount = round(basePrice × tax%/100)
//	rawFinal  = basePrice + taxAmount
//	rounded   = RoundPriceMarkup(rawFinal)
func CalcCustomerPrice(hbNaik decimal.Decimal, cat model.PriceCategory) (model.CategoryPrice, error) {
	if cat.Kind != model.KindCustomer {
		return model.CategoryPrice{}, ErrNotCustomerCategory
	}

	markup := cat.EffectivePercentage()
	base := hbNaik.Mul(decimal.NewFromInt(1).Add(markup.Div(oneHundred))).Round(0)
	tax := base.Mul(cat.TaxPercentage.Div(oneHundred)).Round(0)
	raw := base.Add(tax)

	return model.CategoryPrice{
		CategoryID:        cat.ID,
		BasePrice:         base,
		TaxAmount:         tax,
		RawFinalPrice:     raw,
		RoundedFinalPrice: rounding.RoundPriceMarkup(raw),
		MarkupPercentage:  markup,
	}, nil
}

// CalcMarketplacePrice prices one marketplace category from the default
// customer category's already-rounded final price. Tax is not reapplied —
// it is embedded in the default customer price.
func CalcMarketplacePrice(defaultPrice model.CategoryPrice, cat model.PriceCategory) (model.CategoryPrice, error) {
	if cat.Kind != model.KindMarketplace {
		return model.CategoryPrice{}, ErrNotMarketplaceCategory
	}

	markup := cat.EffectivePercentage()
	raw := defaultPrice.RoundedFinalPrice.Mul(decimal.NewFromInt(1).Add(markup.Div(oneHundred)))

	return model.CategoryPrice{
		CategoryID:        cat.ID,
		BasePrice:         defaultPrice.RoundedFinalPrice,
		TaxAmount:         decimal.Zero,
		RawFinalPrice:     raw,
		RoundedFinalPrice: rounding.RoundPriceMarkup(raw),
		MarkupPercentage:  markup,
	}, nil
}

// ValidateCategories checks the category set's configuration invariants:
// at most one default customer category, and at least one whenever any
// marketplace category needs it as an anchor. Run before every recompute so
// misconfiguration surfaces even while the base price is still uncomputed.
func ValidateCategories(cats []model.PriceCategory) error {
	defaults, marketplaces := 0, 0
	for _, cat := range cats {
		if cat.Kind == model.KindCustomer && cat.IsDefault {
			defaults++
		}
		if cat.Kind == model.KindMarketplace {
			marketplaces++
		}
	}
	if defaults > 1 {
		return ErrMultipleDefaultCategories
	}
	if marketplaces > 0 && defaults == 0 {
		return ErrNoDefaultCategory
	}
	return nil
}

// ComputeCategoryPrices runs the strict two-pass ladder computation:
// all customer prices first, then all marketplace prices against the
// default customer category's result.
//
// Returns ErrNoDefaultCategory if marketplace categories exist without a
// default customer category to anchor them.
func ComputeCategoryPrices(hbNaik decimal.Decimal, cats []model.PriceCategory) (customer, marketplace map[string]model.CategoryPrice, err error) {
	customer = make(map[string]model.CategoryPrice)
	marketplace = make(map[string]model.CategoryPrice)

	// Pass 1: customer categories.
	var defaultPrice model.CategoryPrice
	haveDefault := false
	for _, cat := range cats {
		if cat.Kind != model.KindCustomer {
			continue
		}
		price, err := CalcCustomerPrice(hbNaik, cat)
		if err != nil {
			return nil, nil, err
		}
		customer[cat.ID] = price
		if cat.IsDefault {
			defaultPrice = price
			haveDefault = true
		}
	}

	// Pass 2: marketplace categories, anchored on the default customer price.
	for _, cat := range cats {
		if cat.Kind != model.KindMarketplace {
			continue
		}
		if !haveDefault {
			return nil, nil, ErrNoDefaultCategory
		}
		price, err := CalcMarketplacePrice(defaultPrice, cat)
		if err != nil {
			return nil, nil, err
		}
		marketplace[cat.ID] = price
	}

	return customer, marketplace, nil
}

// DefaultCustomerPrice picks the default customer category's computed price
// out of a ladder. The second return is false when no default is present.
func DefaultCustomerPrice(cats []model.PriceCategory, customer map[string]model.CategoryPrice) (model.CategoryPrice, bool) {
	for _, cat := range cats {
		if cat.Kind == model.KindCustomer && cat.IsDefault {
			price, ok := customer[cat.ID]
			return price, ok
		}
	}
	return model.CategoryPrice{}, false
}
