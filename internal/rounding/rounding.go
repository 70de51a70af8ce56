// Package rounding implements the market-friendly price rounding rules used
// everywhere a user-facing price is finalized.
//
// The rules are magnitude-tiered: small prices snap up to 5s, mid-range
// prices snap to a 5/10 grid, large prices snap up to 10s, 100s, or 1000s.
// RoundPriceMarkup is pure, deterministic, idempotent, and monotonic.
//
// All monetary values use shopspring/decimal — never float64 for money.
package rounding

import "github.com/shopspring/decimal"

var (
	five     = decimal.NewFromInt(5)
	ten      = decimal.NewFromInt(10)
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
	tenThou  = decimal.NewFromInt(10_000)
	million  = decimal.NewFromInt(1_000_000)
)

// RoundPriceMarkup maps a raw price to its market-friendly rounded form.
//
// Bands (lower bound inclusive):
//
//	p ≤ 0            unchanged
//	p < 100          up to the nearest 5
//	100 ≤ p < 1e3    last digit 0 or 5 kept; <5 snaps to the next 5, else up to 10
//	1e3 ≤ p < 1e4    up to the nearest 10
//	1e4 ≤ p < 1e6    up to the nearest 100
//	p ≥ 1e6          remainder past the last whole million under 1000 is
//	                 rounded up to the nearest 100 with the millions kept
//	                 exact; otherwise up to the nearest 1000
func RoundPriceMarkup(price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return price
	}

	switch {
	case price.LessThan(hundred):
		return ceilTo(price, five)

	case price.LessThan(thousand):
		last := price.Mod(ten)
		if last.IsZero() || last.Equal(five) {
			return price
		}
		if last.LessThan(five) {
			// Down to the nearest 10, then add 5.
			return price.Sub(last).Add(five)
		}
		return ceilTo(price, ten)

	case price.LessThan(tenThou):
		return ceilTo(price, ten)

	case price.LessThan(million):
		return ceilTo(price, hundred)

	default:
		remainder := price.Mod(million)
		if remainder.LessThan(thousand) {
			// Keep the million component exact, snap the sub-1000
			// remainder up to the nearest 100.
			return price.Sub(remainder).Add(ceilTo(remainder, hundred))
		}
		if price.Mod(thousand).IsZero() {
			return price
		}
		return ceilTo(price, thousand)
	}
}

// ceilTo rounds price up to the nearest multiple of step.
func ceilTo(price, step decimal.Decimal) decimal.Decimal {
	return price.Div(step).Ceil().Mul(step)
}
