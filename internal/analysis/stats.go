package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes a sample of values (e.g. simulated annual totals).
type Distribution struct {
	Count  int
	Mean   float64
	Std    float64 // sample standard deviation (n-1); 0 when Count <= 1
	Median float64
	P10    float64
	P90    float64
	Min    float64
	Max    float64
}

// Summarize computes moments and order statistics. The input is not modified.
func Summarize(values []float64) Distribution {
	d := Distribution{Count: len(values)}
	if len(values) == 0 {
		return d
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if sorted[0] == sorted[len(sorted)-1] {
		// Constant sample: exact mean, zero spread.
		d.Mean = sorted[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
		if math.IsNaN(d.Std) {
			// Variance rounded below zero.
			d.Std = 0
		}
	}
	d.Median = Percentile(sorted, 0.50)
	d.P10 = Percentile(sorted, 0.10)
	d.P90 = Percentile(sorted, 0.90)
	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	return d
}

// Percentile returns the q-quantile (0..1) of an ascending slice, interpolating
// linearly between the two nearest ranks at position q*(n-1).
func Percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
