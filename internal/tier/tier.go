// Package tier maintains the ordered, validated volume discount tiers for a
// pricing record — the global set, plus one set per variant when per-variant
// customization is enabled.
//
// Each scope moves through disabled → enabled (no tiers) → enabled (tiers).
// Disabling hides the tier data without deleting it, so re-enabling restores
// the prior tiers. Every mutation is all-or-nothing: a rejected edit leaves
// the record untouched.
//
// All monetary values use shopspring/decimal — never float64 for money.
package tier

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
	"github.com/rekaciptadigital/inventory-pro-sub000/internal/rounding"
)

var (
	// ErrTiersDisabled is returned when a tier operation targets a scope
	// whose tier system is switched off.
	ErrTiersDisabled = errors.New("tier: tier system is disabled for this scope")

	// ErrTierNotFound is returned for an out-of-range tier index.
	ErrTierNotFound = errors.New("tier: tier index out of range")

	// ErrUnknownVariant is returned when a per-variant scope names a SKU
	// the record does not carry.
	ErrUnknownVariant = errors.New("tier: unknown variant SKU")

	// ErrScopeNotCustomized is returned when a per-variant tier edit is
	// attempted while per-variant customization is off. Mirrored sets are
	// edited through the global scope only.
	ErrScopeNotCustomized = errors.New("tier: per-variant customization is not enabled")
)

// ValidationError reports a rejected tier edit with the offending field.
// The record is never mutated when one of these is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tier: %s: %s", e.Field, e.Message)
}

var oneHundred = decimal.NewFromInt(100)

// defaultQuantityStep is how far above the current maximum a new tier's
// default quantity lands.
const defaultQuantityStep = 10

// Manager exposes the tier operations over one pricing record. It mutates
// the record in place; callers own persistence and recompute scheduling.
type Manager struct {
	rec *model.PricingRecord
}

// NewManager wraps a pricing record.
func NewManager(rec *model.PricingRecord) *Manager {
	if rec.VariantTiers == nil {
		rec.VariantTiers = make(map[string][]model.DiscountTier)
	}
	if rec.VariantTiersEnabled == nil {
		rec.VariantTiersEnabled = make(map[string]bool)
	}
	return &Manager{rec: rec}
}

// NextQuantity returns the default quantity for a newly added tier:
// one step above the current maximum, or 1 for an empty set.
func NextQuantity(tiers []model.DiscountTier) int64 {
	if len(tiers) == 0 {
		return 1
	}
	max := tiers[0].Quantity
	for _, t := range tiers[1:] {
		if t.Quantity > max {
			max = t.Quantity
		}
	}
	return max + defaultQuantityStep
}

// ClampDiscount forces a discount percentage into [0, 100]. Out-of-range
// interim values are clamped rather than rejected so live edits keep
// producing a price.
func ClampDiscount(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(oneHundred) {
		return oneHundred
	}
	return pct
}

// CalculateDiscountedPrices applies a discount percentage to every category
// price. Both the raw and rounded values are returned so rounding deltas
// stay visible to the UI and tests.
func CalculateDiscountedPrices(categoryPrices map[string]decimal.Decimal, discountPct decimal.Decimal) (map[string]decimal.Decimal, map[string]model.RawRoundedPair) {
	pct := ClampDiscount(discountPct)
	factor := decimal.NewFromInt(1).Sub(pct.Div(oneHundred))

	prices := make(map[string]decimal.Decimal, len(categoryPrices))
	raw := make(map[string]model.RawRoundedPair, len(categoryPrices))
	for id, price := range categoryPrices {
		original := price.Mul(factor)
		rounded := rounding.RoundPriceMarkup(original)
		prices[id] = rounded
		raw[id] = model.RawRoundedPair{Original: original, Rounded: rounded}
	}
	return prices, raw
}

// FlagBelowCost marks categories whose discounted price fell under the base
// cost (HB Naik). Advisory only — selling below cost is flagged, not blocked.
func FlagBelowCost(prices map[string]decimal.Decimal, hbNaik decimal.Decimal) map[string]bool {
	flags := make(map[string]bool)
	if !hbNaik.IsPositive() {
		return flags
	}
	for id, price := range prices {
		if price.LessThan(hbNaik) {
			flags[id] = true
		}
	}
	return flags
}

// Add appends a new tier to the scope with a default quantity one step above
// the current maximum, zero discount, and prices computed against the given
// category-price map. When adding to the global scope while per-variant
// customization is off, a clone with a fresh ID lands in every variant's
// mirrored set.
func (m *Manager) Add(scope model.TierScope, categoryPrices map[string]decimal.Decimal, hbNaik decimal.Decimal) (model.DiscountTier, error) {
	tiers, err := m.scopeTiers(scope)
	if err != nil {
		return model.DiscountTier{}, err
	}
	return m.Insert(scope, NextQuantity(tiers), categoryPrices, hbNaik)
}

// Insert adds a tier with an explicit quantity, placed at its sorted
// position so the scope stays strictly ascending. Non-positive and
// duplicate quantities are rejected with a ValidationError.
func (m *Manager) Insert(scope model.TierScope, quantity int64, categoryPrices map[string]decimal.Decimal, hbNaik decimal.Decimal) (model.DiscountTier, error) {
	tiers, err := m.scopeTiers(scope)
	if err != nil {
		return model.DiscountTier{}, err
	}
	if !m.enabled(scope) {
		return model.DiscountTier{}, ErrTiersDisabled
	}
	if quantity <= 0 {
		return model.DiscountTier{}, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	for _, t := range tiers {
		if t.Quantity == quantity {
			return model.DiscountTier{}, &ValidationError{Field: "quantity", Message: fmt.Sprintf("duplicate quantity %d", quantity)}
		}
	}

	pos := len(tiers)
	for i, t := range tiers {
		if t.Quantity > quantity {
			pos = i
			break
		}
	}

	prices, raw := CalculateDiscountedPrices(categoryPrices, decimal.Zero)
	t := model.DiscountTier{
		ID:                 uuid.NewString(),
		Quantity:           quantity,
		DiscountPercentage: decimal.Zero,
		Prices:             prices,
		RawPrices:          raw,
		BelowCost:          FlagBelowCost(prices, hbNaik),
	}

	m.setScopeTiers(scope, spliceIn(tiers, pos, t))

	if scope.Kind == model.ScopeGlobal && !m.rec.CustomizePerVariant {
		for sku := range m.rec.Variants {
			vt := m.rec.VariantTiers[sku]
			p := pos
			if p > len(vt) {
				p = len(vt)
			}
			m.rec.VariantTiers[sku] = spliceIn(vt, p, t.Clone(uuid.NewString()))
		}
	}
	return t, nil
}

// spliceIn inserts t at pos without aliasing the input slice's tail.
func spliceIn(tiers []model.DiscountTier, pos int, t model.DiscountTier) []model.DiscountTier {
	out := make([]model.DiscountTier, 0, len(tiers)+1)
	out = append(out, tiers[:pos]...)
	out = append(out, t)
	return append(out, tiers[pos:]...)
}

// UpdateQuantity changes one tier's quantity. Values that are not positive,
// duplicate another tier's quantity in the same scope, or break the strict
// ascending order relative to neighbouring tiers are rejected with a
// ValidationError and no mutation.
func (m *Manager) UpdateQuantity(scope model.TierScope, index int, quantity int64) error {
	tiers, err := m.scopeTiers(scope)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tiers) {
		return ErrTierNotFound
	}

	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	for i, t := range tiers {
		if i != index && t.Quantity == quantity {
			return &ValidationError{Field: "quantity", Message: fmt.Sprintf("duplicate quantity %d", quantity)}
		}
	}
	if index > 0 && quantity <= tiers[index-1].Quantity {
		return &ValidationError{Field: "quantity", Message: "must exceed the previous tier's quantity"}
	}
	if index < len(tiers)-1 && quantity >= tiers[index+1].Quantity {
		return &ValidationError{Field: "quantity", Message: "must stay below the next tier's quantity"}
	}

	tiers[index].Quantity = quantity

	if scope.Kind == model.ScopeGlobal && !m.rec.CustomizePerVariant {
		for sku, vt := range m.rec.VariantTiers {
			if index < len(vt) {
				vt[index].Quantity = quantity
				m.rec.VariantTiers[sku] = vt
			}
		}
	}
	return nil
}

// UpdateDiscount changes one tier's discount percentage, clamping it into
// [0, 100], and synchronously recomputes that tier's prices against the
// given category-price map. Safe to call once per keystroke or once per
// commit — each call leaves a fully consistent tier.
func (m *Manager) UpdateDiscount(scope model.TierScope, index int, pct decimal.Decimal, categoryPrices map[string]decimal.Decimal, hbNaik decimal.Decimal) error {
	tiers, err := m.scopeTiers(scope)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tiers) {
		return ErrTierNotFound
	}

	clamped := ClampDiscount(pct)
	applyDiscount(&tiers[index], clamped, categoryPrices, hbNaik)

	if scope.Kind == model.ScopeGlobal && !m.rec.CustomizePerVariant {
		for sku, vt := range m.rec.VariantTiers {
			if index < len(vt) {
				applyDiscount(&vt[index], clamped, categoryPrices, hbNaik)
				m.rec.VariantTiers[sku] = vt
			}
		}
	}
	return nil
}

// Remove excises one tier. Ordering is preserved by removal so neighbouring
// tiers need no re-validation.
func (m *Manager) Remove(scope model.TierScope, index int) error {
	tiers, err := m.scopeTiers(scope)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tiers) {
		return ErrTierNotFound
	}

	m.setScopeTiers(scope, append(tiers[:index:index], tiers[index+1:]...))

	if scope.Kind == model.ScopeGlobal && !m.rec.CustomizePerVariant {
		for sku, vt := range m.rec.VariantTiers {
			if index < len(vt) {
				m.rec.VariantTiers[sku] = append(vt[:index:index], vt[index+1:]...)
			}
		}
	}
	return nil
}

// SetEnabled toggles the tier system for a scope. Disabling hides the tiers
// but keeps the data, so enabling again restores them.
func (m *Manager) SetEnabled(scope model.TierScope, enabled bool) error {
	switch scope.Kind {
	case model.ScopeGlobal:
		m.rec.TiersEnabled = enabled
	case model.ScopePerVariant:
		if _, ok := m.rec.Variants[scope.SKU]; !ok {
			return ErrUnknownVariant
		}
		m.rec.VariantTiersEnabled[scope.SKU] = enabled
	}
	return nil
}

// SetCustomizePerVariant toggles independent per-variant tier editing.
// Turning it off re-mirrors the global set into every variant with fresh
// scoped IDs, discarding variant-local edits.
func (m *Manager) SetCustomizePerVariant(on bool) {
	m.rec.CustomizePerVariant = on
	if on {
		return
	}
	for sku := range m.rec.Variants {
		mirrored := make([]model.DiscountTier, 0, len(m.rec.GlobalTiers))
		for _, t := range m.rec.GlobalTiers {
			mirrored = append(mirrored, t.Clone(uuid.NewString()))
		}
		m.rec.VariantTiers[sku] = mirrored
	}
}

// RecomputeAll rebuilds every tier's prices — global and all variant scopes —
// against fresh category prices, preserving each tier's quantity and
// discount. pricesFor supplies the per-variant category-price map; it
// receives "" for the global scope so variants with their own base cost can
// diverge from the product-level ladder.
func (m *Manager) RecomputeAll(pricesFor func(sku string) map[string]decimal.Decimal, hbNaik decimal.Decimal) {
	global := pricesFor("")
	for i := range m.rec.GlobalTiers {
		applyDiscount(&m.rec.GlobalTiers[i], m.rec.GlobalTiers[i].DiscountPercentage, global, hbNaik)
	}
	for sku, tiers := range m.rec.VariantTiers {
		prices := pricesFor(sku)
		for i := range tiers {
			applyDiscount(&tiers[i], tiers[i].DiscountPercentage, prices, hbNaik)
		}
		m.rec.VariantTiers[sku] = tiers
	}
}

// Tiers returns the visible tier set for a scope: the stored tiers when the
// scope is enabled, nil when it is disabled (hidden, not deleted). Unlike
// edits, reads of a variant scope work while customization is off — they
// see the mirrored set.
func (m *Manager) Tiers(scope model.TierScope) ([]model.DiscountTier, error) {
	switch scope.Kind {
	case model.ScopeGlobal:
		if !m.rec.TiersEnabled {
			return nil, nil
		}
		return m.rec.GlobalTiers, nil
	case model.ScopePerVariant:
		if _, ok := m.rec.Variants[scope.SKU]; !ok {
			return nil, ErrUnknownVariant
		}
		if !m.enabled(scope) {
			return nil, nil
		}
		return m.rec.VariantTiers[scope.SKU], nil
	}
	return nil, fmt.Errorf("tier: unknown scope kind %q", scope.Kind)
}

func applyDiscount(t *model.DiscountTier, pct decimal.Decimal, categoryPrices map[string]decimal.Decimal, hbNaik decimal.Decimal) {
	prices, raw := CalculateDiscountedPrices(categoryPrices, pct)
	t.DiscountPercentage = ClampDiscount(pct)
	t.Prices = prices
	t.RawPrices = raw
	t.BelowCost = FlagBelowCost(prices, hbNaik)
}

func (m *Manager) enabled(scope model.TierScope) bool {
	if scope.Kind == model.ScopePerVariant {
		// Mirrored scopes follow the global switch; customized scopes
		// carry their own, defaulting to the global one.
		if !m.rec.CustomizePerVariant {
			return m.rec.TiersEnabled
		}
		if v, ok := m.rec.VariantTiersEnabled[scope.SKU]; ok {
			return v
		}
	}
	return m.rec.TiersEnabled
}

func (m *Manager) scopeTiers(scope model.TierScope) ([]model.DiscountTier, error) {
	switch scope.Kind {
	case model.ScopeGlobal:
		return m.rec.GlobalTiers, nil
	case model.ScopePerVariant:
		if _, ok := m.rec.Variants[scope.SKU]; !ok {
			return nil, ErrUnknownVariant
		}
		if !m.rec.CustomizePerVariant {
			return nil, ErrScopeNotCustomized
		}
		return m.rec.VariantTiers[scope.SKU], nil
	}
	return nil, fmt.Errorf("tier: unknown scope kind %q", scope.Kind)
}

func (m *Manager) setScopeTiers(scope model.TierScope, tiers []model.DiscountTier) {
	switch scope.Kind {
	case model.ScopeGlobal:
		m.rec.GlobalTiers = tiers
	case model.ScopePerVariant:
		m.rec.VariantTiers[scope.SKU] = tiers
	}
}
