// Package simulation estimates the distribution of the annual cost by
// block-bootstrapping the historical price year: whole runs of calendar days
// are resampled with replacement so that the short-range correlation of
// prices (and of consumption, which is carried along) is preserved.
package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"tariff-backtest/internal/analysis"
	"tariff-backtest/internal/backtest"
	"tariff-backtest/internal/model"
)

// Second PCG state word; the seed supplies the first.
const pcgStream = 0x9e3779b97f4a7c15

// Error reports degenerate simulation parameters.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "simulation: " + e.Msg }

// Params for one simulation run.
type Params struct {
	Iterations      int
	BlockLengthDays int
	Seed            uint64
}

type Simulator struct {
	// Workers bounds trial parallelism; <= 0 uses GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

func New(workers int, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{Workers: workers, Logger: logger}
}

// Run resamples super-blocks of BlockLengthDays days until every trial has as
// many samples as the original series, prices each trial with backtest.Evaluate
// and summarizes the trial totals.
//
// Each trial draws from its own generator, seeded in trial order from a master
// generator, so the result depends only on Seed and not on Workers.
// series and consumption are never modified.
func (s *Simulator) Run(series *model.PriceSeries, consumption *model.Consumption, fixedCosts float64, p Params) (*model.SimulationResult, error) {
	if p.Iterations < model.MinSimulationIterations {
		return nil, &Error{Msg: fmt.Sprintf("iterations must be >= %d, got %d", model.MinSimulationIterations, p.Iterations)}
	}
	if p.BlockLengthDays < 1 {
		return nil, &Error{Msg: fmt.Sprintf("block length must be >= 1 day, got %d", p.BlockLengthDays)}
	}
	if series.Len() == 0 {
		return nil, &Error{Msg: "empty price series"}
	}
	if _, err := backtest.Evaluate(series, consumption, fixedCosts); err != nil {
		return nil, err
	}

	started := time.Now()
	blocks := SuperBlocks(DayBlocks(series), p.BlockLengthDays)

	master := rand.New(rand.NewPCG(p.Seed, pcgStream))
	seeds := make([]uint64, p.Iterations)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, p.Iterations)

	totals := make([]float64, p.Iterations)
	chunk := (p.Iterations + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < p.Iterations; lo += chunk {
		hi := min(lo+chunk, p.Iterations)
		g.Go(func() error {
			buf := newTrialBuffer(series)
			for i := lo; i < hi; i++ {
				rng := rand.New(rand.NewPCG(seeds[i], pcgStream))
				total, err := buf.run(series, consumption, blocks, rng, fixedCosts)
				if err != nil {
					return fmt.Errorf("trial %d: %w", i, err)
				}
				totals[i] = total
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := analysis.Summarize(totals)
	s.logger().Debug("simulation done",
		slog.Int("iterations", p.Iterations),
		slog.Int("blockLengthDays", p.BlockLengthDays),
		slog.Int("superBlocks", len(blocks)),
		slog.Int("workers", workers),
		slog.Duration("duration", time.Since(started)))

	return &model.SimulationResult{
		Median:          d.Median,
		P10:             d.P10,
		P90:             d.P90,
		Mean:            d.Mean,
		Std:             d.Std,
		Iterations:      p.Iterations,
		BlockLengthDays: p.BlockLengthDays,
	}, nil
}

func (s *Simulator) logger() *slog.Logger {
	if s == nil || s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// trialBuffer holds one resampled year. It is reused across the trials of a worker.
type trialBuffer struct {
	prices      model.PriceSeries
	consumption model.Consumption
}

func newTrialBuffer(series *model.PriceSeries) *trialBuffer {
	return &trialBuffer{
		prices: model.PriceSeries{
			Interval: series.Interval,
			Location: series.Location,
			Samples:  make([]model.PriceSample, series.Len()),
		},
		consumption: model.Consumption{
			Samples: make([]model.ConsumptionSample, series.Len()),
		},
	}
}

var errNoBlocks = errors.New("no blocks to draw from")

func (b *trialBuffer) run(series *model.PriceSeries, consumption *model.Consumption, blocks []Span, rng *rand.Rand, fixedCosts float64) (float64, error) {
	if len(blocks) == 0 {
		return 0, errNoBlocks
	}
	n := series.Len()
	filled := 0
	for filled < n {
		blk := blocks[rng.IntN(len(blocks))]
		// copy stops at the end of the buffer, which truncates the last
		// drawn block to exactly n samples.
		m := copy(b.prices.Samples[filled:], series.Samples[blk.Start:blk.End])
		copy(b.consumption.Samples[filled:filled+m], consumption.Samples[blk.Start:blk.Start+m])
		filled += m
	}
	return backtest.Evaluate(&b.prices, &b.consumption, fixedCosts)
}
