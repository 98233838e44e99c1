package backtest

import (
	"fmt"
	"time"

	"tariff-backtest/internal/model"
)

// EvaluationError means the price and consumption series are not aligned.
// The composer guarantees alignment, so this is an integration bug rather than bad input.
type EvaluationError struct {
	Index    int
	Expected time.Time
	Got      time.Time
	Msg      string
}

func (e *EvaluationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("consumption misaligned at index %d: price sample at %s, consumption at %s",
		e.Index, e.Expected.Format(time.RFC3339), e.Got.Format(time.RFC3339))
}

// Evaluate prices a consumption curve against a price series:
//
//	total = fixedCosts + Σ price_i * kWh_i
//
// kWh_i is already per interval, so no further scaling is applied.
// The sum is plain float64 accumulation; rounding is the caller's concern.
func Evaluate(series *model.PriceSeries, consumption *model.Consumption, fixedCosts float64) (float64, error) {
	if err := checkAligned(series, consumption); err != nil {
		return 0, err
	}
	total := fixedCosts
	for i, s := range series.Samples {
		total += s.Price * consumption.Samples[i].KWh
	}
	return total, nil
}

func checkAligned(series *model.PriceSeries, consumption *model.Consumption) error {
	if series.Len() != consumption.Len() {
		return &EvaluationError{
			Msg: fmt.Sprintf("length mismatch: %d price samples, %d consumption samples", series.Len(), consumption.Len()),
		}
	}
	for i, s := range series.Samples {
		c := consumption.Samples[i]
		if !s.Timestamp.Equal(c.Timestamp) {
			return &EvaluationError{Index: i, Expected: s.Timestamp, Got: c.Timestamp}
		}
	}
	return nil
}

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run evaluates a series interval by interval and keeps a ledger row for each.
// TotalCost matches Evaluate for the same inputs.
func (e *Engine) Run(series *model.PriceSeries, consumption *model.Consumption, fixedCosts float64) (*Result, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("no intervals")
	}
	if err := checkAligned(series, consumption); err != nil {
		return nil, err
	}

	ledger := make([]LedgerRow, 0, series.Len())
	total := fixedCosts
	cum := 0.0
	energy := 0.0

	for idx, s := range series.Samples {
		kwh := consumption.Samples[idx].KWh
		cost := s.Price * kwh
		total += cost
		cum += cost
		energy += kwh

		ledger = append(ledger, LedgerRow{
			Index:   idx,
			Start:   s.Timestamp,
			End:     s.Timestamp.Add(series.Interval),
			Price:   s.Price,
			KWh:     kwh,
			Cost:    cost,
			CumCost: cum,
		})
	}

	return &Result{
		Ledger:     ledger,
		EnergyKWh:  energy,
		EnergyCost: cum,
		FixedCosts: fixedCosts,
		TotalCost:  total,
	}, nil
}
