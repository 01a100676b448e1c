package cache

import (
	"context"
	"fmt"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
)

// RollingAverage computes the trailing simple moving average of a price
// field over a Market's cached history, one window-width bucket at a time.
// It reuses the broker client's own windowed-average dependency rather than
// hand-rolling the arithmetic.
type RollingAverage struct {
	window int
	field  func(PriceRow) float64
}

// PriceField selects which of a PriceRow's close prices feeds the average.
type PriceField int

const (
	CloseBid PriceField = iota
	CloseAsk
)

// NewRollingAverage builds a RollingAverage over the given window size
// (number of price rows) and field.
func NewRollingAverage(window int, field PriceField) (*RollingAverage, error) {
	if window <= 0 {
		return nil, fmt.Errorf("cache: rolling average window must be positive, got %d", window)
	}
	var f func(PriceRow) float64
	switch field {
	case CloseBid:
		f = func(r PriceRow) float64 { return r.Close.Bid.Float64() }
	case CloseAsk:
		f = func(r PriceRow) float64 { return r.Close.Ask.Float64() }
	default:
		return nil, fmt.Errorf("cache: unknown price field %d", field)
	}
	return &RollingAverage{window: window, field: f}, nil
}

// Compute returns one average per row once the window has filled. The
// first window-1 rows produce no entry, so result[i] is the average of rows
// [i, i+window-1].
func (ra *RollingAverage) Compute(rows []PriceRow) []float64 {
	ma := movingaverage.New(ra.window)
	var out []float64
	for _, row := range rows {
		ma.Add(ra.field(row))
		if ma.Count() >= ra.window {
			out = append(out, ma.Avg())
		}
	}
	return out
}

// Latest fetches epic's cached price history since since and returns the
// most recent completed rolling average, or false if the window has not
// yet filled.
func (ra *RollingAverage) Latest(ctx context.Context, store Store, epic string, since time.Time) (float64, bool, error) {
	rows, err := store.PriceRange(ctx, epic, since, time.Now())
	if err != nil {
		return 0, false, fmt.Errorf("cache: rolling average for %s: %w", epic, err)
	}
	series := ra.Compute(rows)
	if len(series) == 0 {
		return 0, false, nil
	}
	return series[len(series)-1], true, nil
}
