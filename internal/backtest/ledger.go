package backtest

import "time"

// LedgerRow is one row of per-interval output.
// This is the primary artifact for "what did each interval cost".
type LedgerRow struct {
	Index int

	Start time.Time
	End   time.Time

	Price float64 // currency per kWh
	KWh   float64 // energy drawn in the interval

	Cost    float64
	CumCost float64 // excludes fixed costs
}

type Result struct {
	Ledger []LedgerRow

	EnergyKWh  float64
	EnergyCost float64
	FixedCosts float64
	TotalCost  float64
}

// AveragePrice is the consumption-weighted price actually paid per kWh.
func (r *Result) AveragePrice() float64 {
	if r == nil || r.EnergyKWh == 0 {
		return 0
	}
	return r.EnergyCost / r.EnergyKWh
}
