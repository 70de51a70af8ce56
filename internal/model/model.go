// Package model defines the core domain types shared across the pricing engine.
// All monetary values use shopspring/decimal — never float64 for money.
// Currency amounts are integer-valued in the smallest display unit; percentages
// are plain decimals (11 means 11%, not 0.11).
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryKind distinguishes the two kinds of price categories.
type CategoryKind string

const (
	// KindCustomer is a customer-facing category (Retail, Wholesale, ...).
	// Priced from HB Naik with markup plus tax.
	KindCustomer CategoryKind = "CUSTOMER"

	// KindMarketplace is an external-channel category priced from the
	// default customer category's rounded final price plus markup.
	KindMarketplace CategoryKind = "MARKETPLACE"
)

// BaseCost holds the raw cost inputs supplied by the product form.
type BaseCost struct {
	USDPrice             decimal.Decimal `json:"usd_price" db:"usd_price"`
	ExchangeRate         decimal.Decimal `json:"exchange_rate" db:"exchange_rate"`
	AdjustmentPercentage decimal.Decimal `json:"adjustment_percentage" db:"adjustment_percentage"`
}

// BasePrice is derived from BaseCost and is never settable independently.
type BasePrice struct {
	HBReal decimal.Decimal `json:"hb_real"` // usd_price × exchange_rate, rounded
	HBNaik decimal.Decimal `json:"hb_naik"` // hb_real raised by adjustment %
}

// Computed reports whether the base price carries a usable value. A zero
// HB Real means "uncomputed", not a valid price of zero.
func (b BasePrice) Computed() bool {
	return b.HBReal.IsPositive()
}

// PriceCategory is one rung of the price ladder. Exactly one customer
// category per product must have IsDefault set; it anchors marketplace
// derivation.
type PriceCategory struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Kind          CategoryKind    `json:"kind"`
	Percentage    decimal.Decimal `json:"percentage"`
	IsDefault     bool            `json:"is_default"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"` // customer categories only

	// UseCustom switches the markup source from the category default to a
	// user-supplied value. The calculation contract is unchanged.
	UseCustom        bool            `json:"use_custom"`
	CustomPercentage decimal.Decimal `json:"custom_percentage"`
}

// EffectivePercentage returns the markup percentage actually applied,
// honouring custom-percentage mode.
func (c PriceCategory) EffectivePercentage() decimal.Decimal {
	if c.UseCustom {
		return c.CustomPercentage
	}
	return c.Percentage
}

// CategoryPrice is the computed ladder entry for one category. Raw and
// rounded values are both retained so rounding deltas stay visible.
type CategoryPrice struct {
	CategoryID        string          `json:"category_id"`
	BasePrice         decimal.Decimal `json:"base_price"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	RawFinalPrice     decimal.Decimal `json:"raw_final_price"`
	RoundedFinalPrice decimal.Decimal `json:"rounded_final_price"`
	MarkupPercentage  decimal.Decimal `json:"markup_percentage"`
}

// RawRoundedPair keeps the pre-rounding price next to its rounded form.
type RawRoundedPair struct {
	Original decimal.Decimal `json:"original"`
	Rounded  decimal.Decimal `json:"rounded"`
}

// DiscountTier is one quantity threshold with its discounted price map.
// Tiers within a scope are strictly ascending by quantity, no duplicates.
type DiscountTier struct {
	ID                 string                     `json:"id"`
	Quantity           int64                      `json:"quantity"`
	DiscountPercentage decimal.Decimal            `json:"discount_percentage"`
	Prices             map[string]decimal.Decimal `json:"prices"`     // categoryID → rounded
	RawPrices          map[string]RawRoundedPair  `json:"raw_prices"` // categoryID → {original, rounded}

	// BelowCost flags categories whose discounted price fell under HB Naik.
	// Advisory only: discounting below cost is allowed, just surfaced.
	BelowCost map[string]bool `json:"below_cost,omitempty"`
}

// Clone returns a deep copy of the tier under a new ID. Used when global
// tiers are mirrored into variant scopes.
func (t DiscountTier) Clone(id string) DiscountTier {
	c := t
	c.ID = id
	c.Prices = make(map[string]decimal.Decimal, len(t.Prices))
	for k, v := range t.Prices {
		c.Prices[k] = v
	}
	c.RawPrices = make(map[string]RawRoundedPair, len(t.RawPrices))
	for k, v := range t.RawPrices {
		c.RawPrices[k] = v
	}
	c.BelowCost = make(map[string]bool, len(t.BelowCost))
	for k, v := range t.BelowCost {
		c.BelowCost[k] = v
	}
	return c
}

// ScopeKind tags a tier scope.
type ScopeKind string

const (
	ScopeGlobal     ScopeKind = "GLOBAL"
	ScopePerVariant ScopeKind = "PER_VARIANT"
)

// TierScope identifies which tier set an operation targets: the global set,
// or one variant's set when per-variant customization is enabled.
type TierScope struct {
	Kind ScopeKind `json:"kind"`
	SKU  string    `json:"sku,omitempty"`
}

// GlobalScope returns the scope for the product-wide tier set.
func GlobalScope() TierScope { return TierScope{Kind: ScopeGlobal} }

// VariantScope returns the scope for one variant's tier set.
func VariantScope(sku string) TierScope {
	return TierScope{Kind: ScopePerVariant, SKU: sku}
}

// VariantPriceState is one variant's computed price state.
type VariantPriceState struct {
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Status      bool            `json:"status"`       // active for sale; independent of price mode
	Manual      bool            `json:"manual"`       // price was hand-edited while editing was on
	ManualPrice decimal.Decimal `json:"manual_price"` // last hand-edited value
	Tiers       []DiscountTier  `json:"tiers,omitempty"`
}

// PricingRecord is the mutable per-product pricing state owned by the
// product. Everything derived from it lives in Snapshot, never here.
type PricingRecord struct {
	ProductID  string          `json:"product_id" db:"product_id"`
	Name       string          `json:"name" db:"name"`
	BaseCost   BaseCost        `json:"base_cost"`
	Categories []PriceCategory `json:"categories"`

	TiersEnabled        bool                      `json:"tiers_enabled"`
	CustomizePerVariant bool                      `json:"customize_per_variant"`
	GlobalTiers         []DiscountTier            `json:"global_tiers"`
	VariantTiers        map[string][]DiscountTier `json:"variant_tiers"`
	VariantTiersEnabled map[string]bool           `json:"variant_tiers_enabled"`

	ManualPriceEditing bool                         `json:"manual_price_editing"`
	Variants           map[string]VariantPriceState `json:"variants"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Snapshot is the full derived state for one recompute pass. The engine
// builds a complete new Snapshot and the service swaps it in whole, so no
// reader ever observes a half-applied recompute.
type Snapshot struct {
	ProductID         string                       `json:"product_id"`
	Revision          int64                        `json:"revision"`
	BasePrice         BasePrice                    `json:"base_price"`
	Uncomputed        bool                         `json:"uncomputed"` // zero/negative cost inputs
	CustomerPrices    map[string]CategoryPrice     `json:"customer_prices"`
	MarketplacePrices map[string]CategoryPrice     `json:"marketplace_prices"`
	GlobalTiers       []DiscountTier               `json:"global_tiers"`
	VariantPrices     map[string]VariantPriceState `json:"variant_prices"`
	ReadyToSave       bool                         `json:"ready_to_save"`
	ComputedAt        time.Time                    `json:"computed_at"`
}
