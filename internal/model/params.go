package model

import (
	"errors"
	"math"
)

// MinSimulationIterations is the smallest trial count accepted anywhere in the stack.
const MinSimulationIterations = 10

// SimulationParams configures the block-bootstrap run.
type SimulationParams struct {
	Enabled         bool
	Iterations      int
	BlockLengthDays int
	// Seed makes runs reproducible. Zero is a valid seed.
	Seed uint64
}

func (p SimulationParams) Validate() error {
	if p.Iterations < MinSimulationIterations {
		return errors.New("iterations must be >= 10")
	}
	if p.BlockLengthDays < 1 {
		return errors.New("block length must be >= 1 day")
	}
	return nil
}

// CalculationParameters is everything one annual cost calculation needs.
// Units:
// - BaseLoad: kWh per hour, constant over the year
// - FixedCosts: currency per year, added once
type CalculationParameters struct {
	PriceSeriesByYear map[int]*PriceSeries
	BaseLoad          float64
	Profiles          []NamedLoadProfile
	FixedCosts        float64
	SelectedYear      int
	Simulation        *SimulationParams

	// IncludeMonthly requests a per-month cost split in the result.
	IncludeMonthly bool
	// IncludeLedger keeps the per-interval ledger in the result.
	IncludeLedger bool
}

func (p CalculationParameters) Validate() error {
	if p.BaseLoad < 0 || math.IsNaN(p.BaseLoad) || math.IsInf(p.BaseLoad, 0) {
		return errors.New("base load must be a finite number >= 0")
	}
	if math.IsNaN(p.FixedCosts) || math.IsInf(p.FixedCosts, 0) {
		return errors.New("fixed costs must be finite")
	}
	if p.Simulation != nil && p.Simulation.Enabled {
		if err := p.Simulation.Validate(); err != nil {
			return err
		}
	}
	return nil
}
