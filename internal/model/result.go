package model

// SimulationResult summarizes the distribution of trial totals.
// Individual trial totals are not kept.
type SimulationResult struct {
	Median float64
	P10    float64
	P90    float64
	Mean   float64
	Std    float64

	Iterations      int
	BlockLengthDays int
}
