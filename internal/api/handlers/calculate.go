package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"

	"tariff-backtest/internal/analysis"
	"tariff-backtest/internal/api/models"
	"tariff-backtest/internal/calculator"
	"tariff-backtest/internal/config"
	"tariff-backtest/internal/model"
	"tariff-backtest/internal/profile"

	"github.com/gin-gonic/gin"
)

// Years the boundary accepts, keyed by the request's "year" string.
var supportedYears = map[string]int{"2024": 2024, "2025": 2025}

// CalculateHandler handles annual cost calculations
type CalculateHandler struct {
	calc       *calculator.Calculator
	sim        config.SimulationConfig
	tariffsDir string
	logger     *slog.Logger
}

func NewCalculateHandler(calc *calculator.Calculator, sim config.SimulationConfig, tariffsDir string, logger *slog.Logger) *CalculateHandler {
	return &CalculateHandler{
		calc:       calc,
		sim:        sim,
		tariffsDir: tariffsDir,
		logger:     logger.With("module", "calculate"),
	}
}

// Calculate handles POST /api/v1/calculate
func (h *CalculateHandler) Calculate(c *gin.Context) {
	var req models.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	in, tariffName, err := h.buildInput(&req)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	result, err := h.calc.FromRaw(*in)
	if err != nil {
		writeCalculationError(c, err)
		return
	}

	resp := buildCalculateResponse(result, in.FixedCosts)
	resp.Tariff = tariffName
	c.JSON(http.StatusOK, resp)
}

// buildInput validates the request before the calculator is invoked.
func (h *CalculateHandler) buildInput(req *models.CalculateRequest) (*calculator.RawInput, string, error) {
	if strings.TrimSpace(req.CSVData2024) == "" {
		return nil, "", errors.New("csvData2024 is required")
	}
	if strings.TrimSpace(req.CSVData2025) == "" {
		return nil, "", errors.New("csvData2025 is required")
	}
	year, ok := supportedYears[req.Year]
	if !ok {
		return nil, "", fmt.Errorf("year must be \"2024\" or \"2025\", got %q", req.Year)
	}
	if req.BaseLoad == nil || !isFinite(*req.BaseLoad) || *req.BaseLoad < 0 {
		return nil, "", errors.New("baseLoad must be a finite number >= 0")
	}

	in := &calculator.RawInput{
		CSVByYear: map[int]string{
			2024: req.CSVData2024,
			2025: req.CSVData2025,
		},
		BaseLoad:       *req.BaseLoad,
		Year:           year,
		IncludeMonthly: req.IncludeMonthly,
		Profiles:       map[string]map[string]float64{},
	}
	if len(req.WPProfile) > 0 {
		in.Profiles[profile.NameHeatPump] = req.WPProfile
	}
	if len(req.EVProfile) > 0 {
		in.Profiles[profile.NameEV] = req.EVProfile
	}

	var tariffName string
	if req.Tariff != "" {
		t, err := config.FindTariff(h.tariffsDir, req.Tariff)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, "", fmt.Errorf("unknown tariff %q", req.Tariff)
			}
			return nil, "", fmt.Errorf("tariff %q: %w", req.Tariff, err)
		}
		tariffName = t.Name
		in.FixedCosts = t.FixedCosts
	}
	if req.FixedCosts != nil {
		if !isFinite(*req.FixedCosts) {
			return nil, "", errors.New("fixedCosts must be a finite number")
		}
		in.FixedCosts = *req.FixedCosts
	}

	if req.MonteCarlo {
		sp, err := h.simulationParams(req)
		if err != nil {
			return nil, "", err
		}
		in.Simulation = sp
	}
	return in, tariffName, nil
}

func (h *CalculateHandler) simulationParams(req *models.CalculateRequest) (*model.SimulationParams, error) {
	if req.MCIterations == nil {
		return nil, errors.New("mcIterations is required when monteCarlo is true")
	}
	iterations := *req.MCIterations
	if iterations < model.MinSimulationIterations {
		return nil, fmt.Errorf("mcIterations must be >= %d, got %d", model.MinSimulationIterations, iterations)
	}
	if h.sim.MaxIterations > 0 && iterations > h.sim.MaxIterations {
		return nil, fmt.Errorf("mcIterations must be <= %d, got %d", h.sim.MaxIterations, iterations)
	}

	blockDays := h.sim.DefaultBlockDays
	if req.MCBlockDays != nil {
		blockDays = *req.MCBlockDays
	}
	if blockDays < 1 {
		return nil, fmt.Errorf("mcBlockDays must be >= 1, got %d", blockDays)
	}
	if h.sim.MaxBlockDays > 0 && blockDays > h.sim.MaxBlockDays {
		return nil, fmt.Errorf("mcBlockDays must be <= %d, got %d", h.sim.MaxBlockDays, blockDays)
	}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	return &model.SimulationParams{
		Enabled:         true,
		Iterations:      iterations,
		BlockLengthDays: blockDays,
		Seed:            seed,
	}, nil
}

func buildCalculateResponse(r *calculator.Result, fixedCosts float64) models.CalculateResponse {
	resp := models.CalculateResponse{
		Year:       r.Year,
		TotalCost:  roundMoney(r.TotalCost),
		Intervals:  r.Intervals,
		EnergyKWh:  r.EnergyKWh,
		FixedCosts: roundMoney(fixedCosts),
		PriceStats: toPriceStats(r.PriceStats),
	}
	if s := r.Simulation; s != nil {
		resp.Median = moneyPtr(s.Median)
		resp.P10 = moneyPtr(s.P10)
		resp.P90 = moneyPtr(s.P90)
		resp.Mean = moneyPtr(s.Mean)
		resp.Std = moneyPtr(s.Std)
		resp.Iterations = s.Iterations
		resp.BlockLengthDays = s.BlockLengthDays
	}
	for _, m := range r.Monthly {
		resp.Monthly = append(resp.Monthly, models.MonthlyCostRow{
			Month:        fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
			Intervals:    m.Intervals,
			EnergyKWh:    m.EnergyKWh,
			Cost:         roundMoney(m.Cost),
			AveragePrice: m.AveragePrice,
		})
	}
	return resp
}

func toPriceStats(p analysis.PriceStats) models.PriceStats {
	return models.PriceStats{
		Start:             p.Start,
		End:               p.End,
		Count:             p.Count,
		Min:               p.Min,
		Max:               p.Max,
		Mean:              p.Mean,
		P05:               p.P05,
		P95:               p.P95,
		SpreadP95P05:      p.SpreadP95P05,
		NegativeIntervals: p.NegativeIntervals,
	}
}

// roundMoney rounds to cents. Only presented values are rounded.
func roundMoney(x float64) float64 {
	return math.Round(x*100) / 100
}

func moneyPtr(x float64) *float64 {
	v := roundMoney(x)
	return &v
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
