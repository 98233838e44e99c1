package analysis

import (
	"math"
	"testing"
	"time"

	"tariff-backtest/internal/backtest"
	"tariff-backtest/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestPercentileInterpolates(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	assert.Equal(t, 30.0, Percentile(sorted, 0.5))
	// position 0.1*4 = 0.4 -> 10 + 0.4*10
	assert.InDelta(t, 14.0, Percentile(sorted, 0.10), 1e-12)
	assert.InDelta(t, 46.0, Percentile(sorted, 0.90), 1e-12)
	assert.Equal(t, 10.0, Percentile(sorted, 0))
	assert.Equal(t, 50.0, Percentile(sorted, 1))
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
}

func TestSummarize(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	d := Summarize(values)

	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-12)
	// Sample (n-1) standard deviation.
	assert.InDelta(t, math.Sqrt(5.0/3.0), d.Std, 1e-12)
	assert.InDelta(t, 2.5, d.Median, 1e-12)
	assert.InDelta(t, 1.3, d.P10, 1e-12)
	assert.InDelta(t, 3.7, d.P90, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 4.0, d.Max)
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "input must not be reordered")
}

func TestSummarizeDegenerate(t *testing.T) {
	assert.Equal(t, Distribution{}, Summarize(nil))

	d := Summarize([]float64{7.5})
	assert.Equal(t, 0.0, d.Std)
	assert.Equal(t, 7.5, d.Mean)
	assert.Equal(t, 7.5, d.Median)
	assert.Equal(t, 7.5, d.P10)
	assert.Equal(t, 7.5, d.P90)
}

func TestComputePriceStats(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &model.PriceSeries{Interval: time.Hour}
	for i, p := range []float64{-0.05, 0.10, 0.20, 0.30, 0.45} {
		s.Samples = append(s.Samples, model.PriceSample{Timestamp: start.Add(time.Duration(i) * time.Hour), Price: p})
	}

	st := ComputePriceStats(s)
	assert.Equal(t, 5, st.Count)
	assert.Equal(t, -0.05, st.Min)
	assert.Equal(t, 0.45, st.Max)
	assert.InDelta(t, 0.2, st.Mean, 1e-12)
	assert.Equal(t, 1, st.NegativeIntervals)
	assert.True(t, st.End.Equal(start.Add(5*time.Hour)))
	assert.InDelta(t, st.P95-st.P05, st.SpreadP95P05, 1e-12)

	assert.Equal(t, PriceStats{}, ComputePriceStats(nil))
}

func TestMonthlyBreakdown(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)
	ledger := []backtest.LedgerRow{
		{Start: jan31, Price: 0.1, KWh: 1, Cost: 0.1},
		{Start: jan31.Add(time.Hour), Price: 0.3, KWh: 1, Cost: 0.3},
		{Start: jan31.Add(2 * time.Hour), Price: 0.5, KWh: 2, Cost: 1.0},
	}

	months := MonthlyBreakdown(ledger, time.UTC)
	assert.Len(t, months, 2)
	assert.Equal(t, time.January, months[0].Month)
	assert.InDelta(t, 0.4, months[0].Cost, 1e-12)
	assert.InDelta(t, 0.2, months[0].AveragePrice, 1e-12)
	assert.Equal(t, 2, months[0].Intervals)
	assert.Equal(t, time.February, months[1].Month)

	// In Berlin the last UTC hour of January already belongs to February.
	berlin := time.FixedZone("CET", 3600)
	months = MonthlyBreakdown(ledger, berlin)
	assert.Equal(t, 1, months[0].Intervals)
	assert.Equal(t, 2, months[1].Intervals)

	ranked := RankByCost(MonthlyBreakdown(ledger, time.UTC))
	assert.Equal(t, time.February, ranked[0].Month)
}
