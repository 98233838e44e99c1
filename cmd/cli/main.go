package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	_ "time/tzdata"

	"tariff-backtest/internal/analysis"
	"tariff-backtest/internal/backtest"
	"tariff-backtest/internal/calculator"
	"tariff-backtest/internal/config"
	"tariff-backtest/internal/data"
	"tariff-backtest/internal/logging"
	"tariff-backtest/internal/model"
	"tariff-backtest/internal/profile"
	"tariff-backtest/internal/simulation"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "calculate":
		err = cmdCalculate(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli calculate --csv2024 prices_2024.csv --csv2025 prices_2025.csv --year 2025 --base-load 0.4 [--wp wp.json] [--ev ev.json]")
	fmt.Println("                [--fixed 150 | --tariff-file examples/tariffs/tibber_de.yaml] [--mc --iterations 1000 --block-days 7 --seed 42]")
	fmt.Println("                [--monthly] [--ledger results/ledger.csv] [--config examples/config.yaml]")
	fmt.Println("  cli stats --csv prices_2025.csv [--base-load 1] [--config examples/config.yaml]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - base load is kWh per hour; profile values are kWh per price interval")
	fmt.Println("  - profile files are JSON objects mapping ISO-8601 timestamps to kWh")
}

// resolveTariff loads the optional preset. An explicitly passed --fixed wins,
// including zero, which MergeTariff alone would treat as unset.
func resolveTariff(path string, fixed float64, fixedSet bool) (config.TariffConfig, error) {
	tariff := config.TariffConfig{FixedCosts: fixed}
	if path == "" {
		return tariff, nil
	}
	loaded, err := config.LoadTariffFile(path)
	if err != nil {
		return config.TariffConfig{}, err
	}
	tariff = config.MergeTariff(loaded, tariff)
	if fixedSet {
		tariff.FixedCosts = fixed
	}
	return tariff, nil
}

func cmdCalculate(args []string) error {
	fs := flag.NewFlagSet("calculate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Optional YAML config (csv layout, simulation limits)")
	csv2024 := fs.String("csv2024", "", "Price CSV for 2024")
	csv2025 := fs.String("csv2025", "", "Price CSV for 2025")
	year := fs.Int("year", 2025, "Year to price")
	baseLoad := fs.Float64("base-load", 0, "Constant base load in kWh per hour")
	wpPath := fs.String("wp", "", "Heat pump profile JSON")
	evPath := fs.String("ev", "", "EV profile JSON")
	fixed := fs.Float64("fixed", 0, "Fixed costs per year (overrides the tariff file)")
	tariffPath := fs.String("tariff-file", "", "Tariff preset YAML supplying fixed costs")
	mc := fs.Bool("mc", false, "Run the block-bootstrap simulation")
	iterations := fs.Int("iterations", 1000, "Simulation trials")
	blockDays := fs.Int("block-days", 0, "Days per bootstrap block (0 = config default)")
	seed := fs.Uint64("seed", 1, "Simulation seed")
	monthly := fs.Bool("monthly", false, "Print the monthly cost split")
	ledgerPath := fs.String("ledger", "", "Optional: write the per-interval ledger CSV")
	verbose := fs.Bool("v", false, "Debug logging")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format, Output: os.Stderr})

	layout, err := cfg.CSV.Layout()
	if err != nil {
		return err
	}

	in := calculator.RawInput{
		CSVByYear:      map[int]string{},
		BaseLoad:       *baseLoad,
		Year:           *year,
		Profiles:       map[string]map[string]float64{},
		IncludeMonthly: *monthly,
		IncludeLedger:  *ledgerPath != "",
	}
	for y, path := range map[int]string{2024: *csv2024, 2025: *csv2025} {
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		in.CSVByYear[y] = string(raw)
	}
	for name, path := range map[string]string{profile.NameHeatPump: *wpPath, profile.NameEV: *evPath} {
		if path == "" {
			continue
		}
		p, err := loadProfileJSON(path)
		if err != nil {
			return fmt.Errorf("%s profile: %w", name, err)
		}
		in.Profiles[name] = p
	}

	fixedSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "fixed" {
			fixedSet = true
		}
	})
	tariff, err := resolveTariff(*tariffPath, *fixed, fixedSet)
	if err != nil {
		return err
	}
	in.FixedCosts = tariff.FixedCosts

	if *mc {
		bd := *blockDays
		if bd == 0 {
			bd = cfg.Simulation.DefaultBlockDays
		}
		in.Simulation = &model.SimulationParams{
			Enabled:         true,
			Iterations:      *iterations,
			BlockLengthDays: bd,
			Seed:            *seed,
		}
	}

	calc := calculator.New(layout, simulation.New(cfg.Simulation.Workers, logger.With("module", "simulation")), logger)
	res, err := calc.FromRaw(in)
	if err != nil {
		return err
	}

	if tariff.Name != "" {
		fmt.Printf("Tariff: %s (fixed costs %.2f)\n", tariff.Name, tariff.FixedCosts)
	}
	fmt.Printf("Year %d: %d intervals, %.1f kWh\n", res.Year, res.Intervals, res.EnergyKWh)
	fmt.Printf("Total cost: %.2f\n", res.TotalCost)
	if s := res.Simulation; s != nil {
		fmt.Printf("Simulation (%d trials, %d-day blocks):\n", s.Iterations, s.BlockLengthDays)
		fmt.Printf("  median=%.2f p10=%.2f p90=%.2f mean=%.2f std=%.2f\n", s.Median, s.P10, s.P90, s.Mean, s.Std)
	}
	if len(res.Monthly) > 0 {
		printMonthly(res.Monthly)
	}

	if *ledgerPath != "" {
		// ensure output dir exists
		if err := os.MkdirAll(filepath.Dir(*ledgerPath), 0o755); err != nil {
			return err
		}
		if err := backtest.WriteLedgerCSV(*ledgerPath, res.Ledger); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Ledger), *ledgerPath)
	}
	return nil
}

func cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Optional YAML config (csv layout)")
	csvPath := fs.String("csv", "", "Price CSV")
	baseLoad := fs.Float64("base-load", 1, "Flat load in kWh per hour used for the monthly cost split")
	_ = fs.Parse(args)

	if *csvPath == "" {
		return errors.New("--csv is required")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	layout, err := cfg.CSV.Layout()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(*csvPath)
	if err != nil {
		return err
	}
	series, err := data.ParsePrices(string(raw), layout)
	if err != nil {
		return err
	}

	st := analysis.ComputePriceStats(series)
	fmt.Printf("Year %d, %d samples every %s (%s .. %s)\n", series.Year(), st.Count, series.Interval, st.Start.Format("2006-01-02"), st.End.Format("2006-01-02"))
	fmt.Printf("min=%.4f max=%.4f mean=%.4f p05=%.4f p95=%.4f spread=%.4f negative=%d\n",
		st.Min, st.Max, st.Mean, st.P05, st.P95, st.SpreadP95P05, st.NegativeIntervals)

	consumption := profile.Compose(series, *baseLoad)
	res, err := backtest.New().Run(series, consumption, 0)
	if err != nil {
		return err
	}
	months := analysis.MonthlyBreakdown(res.Ledger, series.Loc())
	printMonthly(months)

	fmt.Println("Most expensive months:")
	for i, m := range analysis.RankByCost(months) {
		if i == 3 {
			break
		}
		fmt.Printf("  %d. %04d-%02d %.2f\n", i+1, m.Year, int(m.Month), m.Cost)
	}
	return nil
}

func printMonthly(months []analysis.MonthCost) {
	fmt.Printf("%-8s %-10s %-10s %-10s %-10s\n", "month", "kWh", "cost", "avg paid", "avg market")
	for _, m := range months {
		fmt.Printf("%04d-%02d  %-10.1f %-10.2f %-10.4f %-10.4f\n", m.Year, int(m.Month), m.EnergyKWh, m.Cost, m.AveragePrice, m.MeanPrice)
	}
}

func loadProfileJSON(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

