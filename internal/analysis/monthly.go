package analysis

import (
	"sort"
	"time"

	"tariff-backtest/internal/backtest"
)

// MonthCost is the energy cost attributed to one calendar month.
// Fixed costs are annual and are not split across months.
type MonthCost struct {
	Year  int
	Month time.Month

	Intervals    int
	EnergyKWh    float64
	Cost         float64
	AveragePrice float64 // consumption-weighted, currency per kWh
	MeanPrice    float64 // unweighted market average
}

// MonthlyBreakdown groups a ledger by calendar month in loc, chronologically.
func MonthlyBreakdown(ledger []backtest.LedgerRow, loc *time.Location) []MonthCost {
	if loc == nil {
		loc = time.UTC
	}
	type monthKey struct {
		Year  int
		Month time.Month
	}
	type acc struct {
		MonthCost
		priceSum float64
	}

	byMonth := make(map[monthKey]*acc)
	for _, row := range ledger {
		t := row.Start.In(loc)
		k := monthKey{Year: t.Year(), Month: t.Month()}
		a, ok := byMonth[k]
		if !ok {
			a = &acc{MonthCost: MonthCost{Year: k.Year, Month: k.Month}}
			byMonth[k] = a
		}
		a.Intervals++
		a.EnergyKWh += row.KWh
		a.Cost += row.Cost
		a.priceSum += row.Price
	}

	out := make([]MonthCost, 0, len(byMonth))
	for _, a := range byMonth {
		m := a.MonthCost
		if m.EnergyKWh > 0 {
			m.AveragePrice = m.Cost / m.EnergyKWh
		}
		if m.Intervals > 0 {
			m.MeanPrice = a.priceSum / float64(m.Intervals)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// RankByCost returns a copy of months sorted by descending cost.
func RankByCost(months []MonthCost) []MonthCost {
	out := append([]MonthCost(nil), months...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cost > out[j].Cost
	})
	return out
}
