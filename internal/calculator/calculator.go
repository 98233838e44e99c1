// Package calculator wires parsing, consumption composition, cost evaluation
// and simulation into one annual cost calculation.
package calculator

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"tariff-backtest/internal/analysis"
	"tariff-backtest/internal/backtest"
	"tariff-backtest/internal/data"
	"tariff-backtest/internal/metrics"
	"tariff-backtest/internal/model"
	"tariff-backtest/internal/profile"
	"tariff-backtest/internal/simulation"
)

// Result of one calculation. Simulation is nil unless a simulation was requested.
type Result struct {
	Year       int
	TotalCost  float64
	Simulation *model.SimulationResult

	Intervals  int
	EnergyKWh  float64
	PriceStats analysis.PriceStats
	Monthly    []analysis.MonthCost
	Ledger     []backtest.LedgerRow
}

type Calculator struct {
	layout    data.CSVLayout
	engine    *backtest.Engine
	simulator *simulation.Simulator
	logger    *slog.Logger
}

func New(layout data.CSVLayout, simulator *simulation.Simulator, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	if simulator == nil {
		simulator = simulation.New(0, logger)
	}
	return &Calculator{
		layout:    layout,
		engine:    backtest.New(),
		simulator: simulator,
		logger:    logger.With("module", "calculator"),
	}
}

// ComputeAnnualCost prices the selected year and, when enabled, runs the
// bootstrap simulation on the same series and consumption.
// All failures are returned as *Error; no partial result is returned.
func (c *Calculator) ComputeAnnualCost(params model.CalculationParameters) (*Result, error) {
	started := time.Now()
	mode := metrics.ModeDeterministic
	if params.Simulation != nil && params.Simulation.Enabled {
		mode = metrics.ModeMonteCarlo
	}

	res, err := c.compute(params)
	if err != nil {
		metrics.ObserveCalculation(mode, metrics.ResultError, time.Since(started))
		c.logger.Warn("calculation failed", slog.Int("year", params.SelectedYear), slog.String("kind", err.Kind.String()), slog.Any("error", err.Err))
		return nil, err
	}

	metrics.ObserveCalculation(mode, metrics.ResultSuccess, time.Since(started))
	c.logger.Info("calculation done",
		slog.Int("year", res.Year),
		slog.String("mode", mode),
		slog.Int("intervals", res.Intervals),
		slog.Float64("totalCost", res.TotalCost),
		slog.Duration("duration", time.Since(started)))
	return res, nil
}

func (c *Calculator) compute(params model.CalculationParameters) (*Result, *Error) {
	if err := params.Validate(); err != nil {
		return nil, &Error{Kind: KindValidation, Err: &ValidationError{Msg: err.Error()}}
	}
	series, ok := params.PriceSeriesByYear[params.SelectedYear]
	if !ok || series.Len() == 0 {
		return nil, invalid("year", "no price data for year %d", params.SelectedYear)
	}

	consumption := profile.Compose(series, params.BaseLoad, params.Profiles...)

	total, err := backtest.Evaluate(series, consumption, params.FixedCosts)
	if err != nil {
		return nil, classify(err)
	}

	res := &Result{
		Year:       params.SelectedYear,
		TotalCost:  total,
		Intervals:  series.Len(),
		EnergyKWh:  consumption.TotalKWh(),
		PriceStats: analysis.ComputePriceStats(series),
	}

	if params.IncludeMonthly || params.IncludeLedger {
		run, err := c.engine.Run(series, consumption, params.FixedCosts)
		if err != nil {
			return nil, classify(err)
		}
		if params.IncludeMonthly {
			res.Monthly = analysis.MonthlyBreakdown(run.Ledger, series.Loc())
		}
		if params.IncludeLedger {
			res.Ledger = run.Ledger
		}
	}

	if sp := params.Simulation; sp != nil && sp.Enabled {
		sim, err := c.simulator.Run(series, consumption, params.FixedCosts, simulation.Params{
			Iterations:      sp.Iterations,
			BlockLengthDays: sp.BlockLengthDays,
			Seed:            sp.Seed,
		})
		if err != nil {
			return nil, classify(err)
		}
		metrics.AddSimulationTrials(sim.Iterations)
		res.Simulation = sim
	}
	return res, nil
}

// RawInput is a calculation request before parsing: CSV text per year and
// profiles keyed by ISO-8601 timestamp.
type RawInput struct {
	CSVByYear  map[int]string
	BaseLoad   float64
	Profiles   map[string]map[string]float64 // profile name -> timestamp -> kWh
	FixedCosts float64
	Year       int
	Simulation *model.SimulationParams

	IncludeMonthly bool
	IncludeLedger  bool
}

// FromRaw parses every supplied year with the calculator's CSV layout, checks that
// each parsed series really belongs to the year it was supplied for, builds the
// profiles and runs ComputeAnnualCost.
func (c *Calculator) FromRaw(in RawInput) (*Result, error) {
	if _, ok := in.CSVByYear[in.Year]; !ok {
		return nil, invalid("year", "no price data supplied for year %d", in.Year)
	}

	byYear := make(map[int]*model.PriceSeries, len(in.CSVByYear))
	for year, raw := range in.CSVByYear {
		series, err := data.ParsePrices(raw, c.layout)
		if err != nil {
			return nil, &Error{Kind: KindParse, Err: fmt.Errorf("prices %d: %w", year, err)}
		}
		if got := series.Year(); got != year {
			return nil, &Error{Kind: KindParse, Err: fmt.Errorf("prices %d: %w", year, &data.ParseError{
				Field: "timestamp",
				Value: strconv.Itoa(got),
				Err:   fmt.Errorf("series belongs to %d", got),
			})}
		}
		byYear[year] = series
	}

	var profiles []model.NamedLoadProfile
	for _, name := range sortedKeys(in.Profiles) {
		p, err := profile.ParseProfile(name, in.Profiles[name])
		if err != nil {
			return nil, invalid(name, "%v", err)
		}
		profiles = append(profiles, p)
	}

	return c.ComputeAnnualCost(model.CalculationParameters{
		PriceSeriesByYear: byYear,
		BaseLoad:          in.BaseLoad,
		Profiles:          profiles,
		FixedCosts:        in.FixedCosts,
		SelectedYear:      in.Year,
		Simulation:        in.Simulation,
		IncludeMonthly:    in.IncludeMonthly,
		IncludeLedger:     in.IncludeLedger,
	})
}
