package backtest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"tariff-backtest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func constSeries(n int, interval time.Duration, price float64) *model.PriceSeries {
	s := &model.PriceSeries{Interval: interval, Samples: make([]model.PriceSample, n)}
	for i := range s.Samples {
		s.Samples[i] = model.PriceSample{Timestamp: day0.Add(time.Duration(i) * interval), Price: price}
	}
	return s
}

func flatConsumption(s *model.PriceSeries, kwh float64) *model.Consumption {
	c := &model.Consumption{Samples: make([]model.ConsumptionSample, s.Len())}
	for i, p := range s.Samples {
		c.Samples[i] = model.ConsumptionSample{Timestamp: p.Timestamp, KWh: kwh}
	}
	return c
}

func TestEvaluateDayScenario(t *testing.T) {
	s := constSeries(24, time.Hour, 0.10)
	total, err := Evaluate(s, flatConsumption(s, 1), 5)
	require.NoError(t, err)
	assert.InDelta(t, 7.4, total, 1e-9)
}

func TestEvaluateConstantPriceClosedForm(t *testing.T) {
	// Consumption is kWh per interval, so a load of r kWh/h contributes r*intervalHours per sample.
	const price, ratePerHour, fixed = 0.27, 1.6, 120.0
	for _, interval := range []time.Duration{time.Hour, 15 * time.Minute} {
		s := constSeries(500, interval, price)
		c := flatConsumption(s, ratePerHour*interval.Hours())

		total, err := Evaluate(s, c, fixed)
		require.NoError(t, err)

		sumRate := ratePerHour * float64(s.Len())
		assert.InDelta(t, fixed+price*sumRate*interval.Hours(), total, 1e-9)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	s := constSeries(96, 15*time.Minute, 0)
	for i := range s.Samples {
		s.Samples[i].Price = 0.1 + float64(i%7)*0.013
	}
	c := flatConsumption(s, 0.31)

	a, err := Evaluate(s, c, 3.3)
	require.NoError(t, err)
	b, err := Evaluate(s, c, 3.3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluateMisaligned(t *testing.T) {
	s := constSeries(4, time.Hour, 0.1)

	_, err := Evaluate(s, flatConsumption(constSeries(3, time.Hour, 0), 1), 0)
	var ee *EvaluationError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, err.Error(), "length mismatch")

	c := flatConsumption(s, 1)
	c.Samples[2].Timestamp = c.Samples[2].Timestamp.Add(time.Minute)
	_, err = Evaluate(s, c, 0)
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 2, ee.Index)
	assert.True(t, ee.Expected.Equal(s.Samples[2].Timestamp))
}

func TestRunMatchesEvaluate(t *testing.T) {
	s := constSeries(48, time.Hour, 0)
	for i := range s.Samples {
		s.Samples[i].Price = float64(i%24) * 0.011
	}
	c := flatConsumption(s, 0.7)

	want, err := Evaluate(s, c, 42)
	require.NoError(t, err)

	res, err := New().Run(s, c, 42)
	require.NoError(t, err)
	assert.Equal(t, want, res.TotalCost)
	require.Len(t, res.Ledger, 48)
	assert.InDelta(t, res.EnergyCost, res.Ledger[47].CumCost, 1e-12)
	assert.InDelta(t, 0.7*48, res.EnergyKWh, 1e-9)
	assert.InDelta(t, res.EnergyCost/res.EnergyKWh, res.AveragePrice(), 1e-12)
	assert.True(t, res.Ledger[1].End.Equal(s.Samples[1].Timestamp.Add(time.Hour)))
}

func TestRunEmpty(t *testing.T) {
	_, err := New().Run(&model.PriceSeries{}, &model.Consumption{}, 0)
	assert.Error(t, err)
}

func TestWriteLedger(t *testing.T) {
	s := constSeries(2, time.Hour, 0.5)
	res, err := New().Run(s, flatConsumption(s, 2), 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, res.Ledger))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "index,interval_start,interval_end,price_per_kwh,kwh,cost,cum_cost", lines[0])
	assert.Equal(t, "1,2024-03-01T01:00:00Z,2024-03-01T02:00:00Z,0.500000,2.000000,1.000000,2.000000", lines[2])
}
