// Package variant keeps each product variant's price in lock-step with the
// default customer category price, unless manual price editing has frozen
// the variant prices at their current values.
package variant

import (
	"github.com/shopspring/decimal"

	"github.com/rekaciptadigital/inventory-pro-sub000/internal/model"
)

// Resync recomputes every variant's price from the default customer
// category's rounded final price.
//
// While manual price editing is on, prices stay frozen at their current
// (possibly hand-edited) values. Once it is off again, every variant
// resnaps to the default price on this pass and the manual markers clear.
// The active/inactive status flag is independent of price mode and is
// never touched here.
//
// An uncomputed default price (zero) propagates as price 0, which callers
// must treat as "not yet priced" — see ReadyToSave.
func Resync(variants map[string]model.VariantPriceState, defaultPrice decimal.Decimal, manualEditing bool) map[string]model.VariantPriceState {
	out := make(map[string]model.VariantPriceState, len(variants))
	for sku, v := range variants {
		if manualEditing {
			out[sku] = v
			continue
		}
		v.Price = defaultPrice
		v.Manual = false
		v.ManualPrice = decimal.Zero
		out[sku] = v
	}
	return out
}

// SetManualPrice hand-edits one variant's price. Only allowed while manual
// price editing is on; the edit marks the variant so the frozen value
// survives subsequent recomputes until editing is toggled off.
func SetManualPrice(v model.VariantPriceState, price decimal.Decimal) model.VariantPriceState {
	v.Price = price
	v.Manual = true
	v.ManualPrice = price
	return v
}

// ReadyToSave reports whether every variant carries a non-zero computed or
// manually-set price. A zero price means "not yet priced" and must gate
// saving, never be committed as a real price.
func ReadyToSave(variants map[string]model.VariantPriceState) bool {
	if len(variants) == 0 {
		return false
	}
	for _, v := range variants {
		if !v.Price.IsPositive() {
			return false
		}
	}
	return true
}
