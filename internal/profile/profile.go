// Package profile builds the household consumption curve that the cost
// evaluator prices: a constant base load plus any number of sparse named
// load profiles (heat pump, EV, ...).
package profile

import (
	"fmt"
	"math"
	"time"

	"tariff-backtest/internal/model"
)

// Well-known profile names used at the request boundary.
const (
	NameHeatPump = "heat_pump"
	NameEV       = "ev"
)

// MapProfile is a NamedLoadProfile backed by a timestamp → kWh map.
// Keys are unix seconds so that different ISO spellings of the same instant match.
type MapProfile struct {
	name   string
	values map[int64]float64
}

var _ model.NamedLoadProfile = (*MapProfile)(nil)

// NewMapProfile builds a profile from already-parsed instants.
func NewMapProfile(name string, values map[time.Time]float64) *MapProfile {
	p := &MapProfile{name: name, values: make(map[int64]float64, len(values))}
	for t, v := range values {
		p.values[t.Unix()] += v
	}
	return p
}

// ParseProfile builds a profile from ISO-8601 keys (RFC3339, e.g. "2024-01-01T00:00:00Z").
// Values are kWh per price interval and must be finite and >= 0.
func ParseProfile(name string, raw map[string]float64) (*MapProfile, error) {
	p := &MapProfile{name: name, values: make(map[int64]float64, len(raw))}
	for k, v := range raw {
		t, err := time.Parse(time.RFC3339, k)
		if err != nil {
			return nil, fmt.Errorf("%s profile: invalid timestamp %q: %w", name, k, err)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s profile: value at %s must be a finite number >= 0", name, k)
		}
		p.values[t.Unix()] += v
	}
	return p, nil
}

func (p *MapProfile) Name() string { return p.name }

func (p *MapProfile) Lookup(t time.Time) float64 {
	if p == nil {
		return 0
	}
	return p.values[t.Unix()]
}

// Len is the number of distinct instants the profile covers.
func (p *MapProfile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// Compose returns the per-interval consumption for every sample of the series:
//
//	kWh(t) = baseLoadPerHour * interval/1h + Σ profile.Lookup(t)
//
// Profile entries at instants without a price sample are ignored since no cost
// can be attributed to them. The output is aligned one-to-one with series.
func Compose(series *model.PriceSeries, baseLoadPerHour float64, profiles ...model.NamedLoadProfile) *model.Consumption {
	out := &model.Consumption{Samples: make([]model.ConsumptionSample, series.Len())}
	if series.Len() == 0 {
		return out
	}
	base := model.PerInterval(baseLoadPerHour, series.Interval)

	for i, s := range series.Samples {
		kwh := base
		for _, p := range profiles {
			if p == nil {
				continue
			}
			kwh += p.Lookup(s.Timestamp)
		}
		out.Samples[i] = model.ConsumptionSample{Timestamp: s.Timestamp, KWh: kwh}
	}
	return out
}
