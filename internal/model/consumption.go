package model

import "time"

// ConsumptionSample is the energy drawn during one price interval.
// Units: KWh is kWh per interval (not per hour).
type ConsumptionSample struct {
	Timestamp time.Time
	KWh       float64
}

// Consumption is aligned one-to-one with the PriceSeries it was composed for.
type Consumption struct {
	Samples []ConsumptionSample
}

func (c *Consumption) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Samples)
}

// TotalKWh sums energy over all intervals.
func (c *Consumption) TotalKWh() float64 {
	if c == nil {
		return 0
	}
	sum := 0.0
	for _, s := range c.Samples {
		sum += s.KWh
	}
	return sum
}

// NamedLoadProfile is a sparse consumption curve for one appliance class
// (heat pump, EV, ...). Lookup returns 0 for timestamps the profile does not cover.
type NamedLoadProfile interface {
	Name() string
	Lookup(t time.Time) float64
}
