package cache

import (
	"github.com/shopspring/decimal"
)

// priceScale is the base-10 scale (10^5) at which bid/ask prices are stored
// as integers in the cache, per the column layout in spec section 6.
const priceScale = 5

var scaleFactor = decimal.New(1, priceScale)

// FixedPoint is a bid or ask price stored as a base-10 fixed-point integer
// at a scale of 10^5, e.g. 1.23456 is stored as 123456.
type FixedPoint int64

// FixedPointFromFloat converts a float64 price into its fixed-point
// representation at the cache's scale.
func FixedPointFromFloat(f float64) FixedPoint {
	d := decimal.NewFromFloat(f).Mul(scaleFactor)
	return FixedPoint(d.Round(0).IntPart())
}

// Float64 converts the stored fixed-point integer back into a float64,
// rounded to five decimal places.
func (p FixedPoint) Float64() float64 {
	d := decimal.New(int64(p), 0).DivRound(scaleFactor, priceScale+2)
	f, _ := d.Round(priceScale).Float64()
	return f
}

// Decimal returns the price as an exact decimal.Decimal, avoiding the
// float64 round-trip entirely.
func (p FixedPoint) Decimal() decimal.Decimal {
	return decimal.New(int64(p), 0).DivRound(scaleFactor, priceScale)
}
