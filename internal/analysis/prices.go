package analysis

import (
	"math"
	"sort"
	"time"

	"tariff-backtest/internal/model"
)

// PriceStats is a compact description of one year of prices.
type PriceStats struct {
	Start time.Time
	End   time.Time

	Count int

	Min  float64
	Max  float64
	Mean float64
	P05  float64
	P95  float64

	// SpreadP95P05 is a rough volatility measure: how much cheaper the
	// cheap hours are than the expensive ones.
	SpreadP95P05 float64

	// NegativeIntervals counts intervals with a price below zero.
	NegativeIntervals int
}

func ComputePriceStats(series *model.PriceSeries) PriceStats {
	p := PriceStats{}
	if series.Len() == 0 {
		return p
	}
	p.Count = series.Len()
	p.Start = series.Start()
	p.End = series.End()

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, series.Len())
	for _, s := range series.Samples {
		v := s.Price
		vals = append(vals, v)
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
		if v < 0 {
			p.NegativeIntervals++
		}
	}
	sort.Float64s(vals)
	p.Min = minv
	p.Max = maxv
	p.Mean = sum / float64(len(vals))
	p.P05 = Percentile(vals, 0.05)
	p.P95 = Percentile(vals, 0.95)
	p.SpreadP95P05 = p.P95 - p.P05
	return p
}
