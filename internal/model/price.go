package model

import "time"

// PriceSample is one market price observation.
// Price is in currency per kWh (after any unit scaling applied by the parser).
type PriceSample struct {
	Timestamp time.Time
	Price     float64
}

// PriceSeries is an ordered price history for a single calendar year.
//
// Invariants (enforced by the parser):
// - timestamps strictly increasing
// - constant spacing of Interval between consecutive samples
// - every sample falls in the same calendar year in Location
//
// Partial years are allowed.
type PriceSeries struct {
	Interval time.Duration
	Location *time.Location
	Samples  []PriceSample
}

func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Samples)
}

// Year returns the calendar year of the first sample, or 0 for an empty series.
func (s *PriceSeries) Year() int {
	if s.Len() == 0 {
		return 0
	}
	return s.Samples[0].Timestamp.In(s.Loc()).Year()
}

// SamplesPerDay is the nominal number of samples in a calendar day (24 or 96).
func (s *PriceSeries) SamplesPerDay() int {
	if s.Interval <= 0 {
		return 0
	}
	return int((24 * time.Hour) / s.Interval)
}

// Loc returns the location calendar days are evaluated in (UTC when unset).
func (s *PriceSeries) Loc() *time.Location {
	if s == nil || s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Start and End bound the covered period; End is the end of the last interval.
func (s *PriceSeries) Start() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Samples[0].Timestamp
}

func (s *PriceSeries) End() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Samples[len(s.Samples)-1].Timestamp.Add(s.Interval)
}
