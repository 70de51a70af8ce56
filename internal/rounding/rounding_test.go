package rounding

import (
	"testing"

	"github.com/shopspring/decimal"
)

// d is a test helper for creating decimals from int64.
func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestRoundPriceMarkup_Bands(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{"zero unchanged", 0, 0},
		{"negative unchanged", -250, -250},
		{"small up to 5", 1, 5},
		{"small up to 5 mid", 23, 25},
		{"small already multiple of 5", 95, 95},
		{"small top of band", 99, 100},
		{"mid last digit 0 kept", 120, 120},
		{"mid last digit 5 kept", 125, 125},
		{"mid below 5 snaps to 5", 123, 125},
		{"mid above 5 snaps to 10", 128, 130},
		{"mid top of band", 999, 1000},
		{"thousands already multiple of 10", 1230, 1230},
		{"thousands up to 10", 1231, 1240},
		{"thousands top of band", 9999, 10000},
		{"ten-thousands up to 100", 12345, 12400},
		{"ten-thousands already multiple of 100", 12400, 12400},
		{"ten-thousands top of band", 999950, 1000000},
		{"exact million unchanged", 1000000, 1000000},
		{"million remainder under 1000 to nearest 100", 1000001, 1000100},
		{"million remainder multiple of 100 kept", 1000500, 1000500},
		{"million remainder 800 kept", 1000800, 1000800},
		{"million remainder 999 up", 1000999, 1001000},
		{"million multiple of 1000 kept", 1332000, 1332000},
		{"million not multiple of 1000 up", 1332500, 1333000},
		{"large million remainder kept exact", 5000300, 5000300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundPriceMarkup(d(tt.in))
			if !got.Equal(d(tt.want)) {
				t.Errorf("RoundPriceMarkup(%d) = %s, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundPriceMarkup_Fractional(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int64
	}{
		{"fraction below 100", 12.3, 15},
		{"fraction mid band below 5", 123.4, 125},
		{"fraction mid band above 5", 128.7, 130},
		{"fraction thousands", 1230.01, 1240},
		{"fraction just above million", 1000000.5, 1000100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundPriceMarkup(decimal.NewFromFloat(tt.in))
			if !got.Equal(d(tt.want)) {
				t.Errorf("RoundPriceMarkup(%v) = %s, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundPriceMarkup_Idempotent(t *testing.T) {
	// round(round(x)) == round(x) across all bands and their boundaries.
	samples := []int64{
		0, 1, 3, 5, 23, 95, 99, 100, 101, 123, 125, 128, 130, 994, 995, 999,
		1000, 1001, 1230, 1231, 9990, 9999, 10000, 10001, 12345, 99999,
		100000, 999900, 999950, 1000000, 1000001, 1000099, 1000100, 1000500,
		1000800, 1000999, 1001000, 1001001, 1332000, 1332500, 9999999,
	}
	for _, s := range samples {
		once := RoundPriceMarkup(d(s))
		twice := RoundPriceMarkup(once)
		if !twice.Equal(once) {
			t.Errorf("not idempotent at %d: round=%s round²=%s", s, once, twice)
		}
	}
}

func TestRoundPriceMarkup_Monotonic(t *testing.T) {
	// For x ≤ y, round(x) ≤ round(y). Dense sweep around every band
	// boundary plus a coarser sweep inside the bands.
	var samples []int64
	boundaries := []int64{100, 1000, 10_000, 1_000_000, 1_001_000, 2_000_000}
	for _, b := range boundaries {
		for v := b - 25; v <= b+25; v++ {
			samples = append(samples, v)
		}
	}
	for v := int64(0); v < 2_100_000; v += 137 {
		samples = append(samples, v)
	}

	for _, x := range samples {
		rx := RoundPriceMarkup(d(x))
		ry := RoundPriceMarkup(d(x + 1))
		if rx.GreaterThan(ry) {
			t.Errorf("monotonicity violated: round(%d)=%s > round(%d)=%s", x, rx, x+1, ry)
		}
	}
}

func TestRoundPriceMarkup_NeverRoundsDown(t *testing.T) {
	for v := int64(1); v < 2_005_000; v += 211 {
		rounded := RoundPriceMarkup(d(v))
		if rounded.LessThan(d(v)) {
			t.Errorf("rounded below input at %d: got %s", v, rounded)
		}
	}
}
