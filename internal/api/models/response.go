package models

import "time"

// CalculateResponse is the body of a successful calculation.
// Simulation fields are only present when monteCarlo was requested.
type CalculateResponse struct {
	Year      int     `json:"year"`
	TotalCost float64 `json:"totalCost"`

	Median *float64 `json:"median,omitempty"`
	P10    *float64 `json:"p10,omitempty"`
	P90    *float64 `json:"p90,omitempty"`
	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`

	Iterations      int `json:"iterations,omitempty"`
	BlockLengthDays int `json:"blockLengthDays,omitempty"`

	Intervals  int              `json:"intervals"`
	EnergyKWh  float64          `json:"energyKWh"`
	FixedCosts float64          `json:"fixedCosts"`
	Tariff     string           `json:"tariff,omitempty"`
	PriceStats PriceStats       `json:"priceStats"`
	Monthly    []MonthlyCostRow `json:"monthly,omitempty"`
}

// PriceStats describes the selected year's prices (currency per kWh).
type PriceStats struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Count             int       `json:"count"`
	Min               float64   `json:"min"`
	Max               float64   `json:"max"`
	Mean              float64   `json:"mean"`
	P05               float64   `json:"p05"`
	P95               float64   `json:"p95"`
	SpreadP95P05      float64   `json:"spreadP95P05"`
	NegativeIntervals int       `json:"negativeIntervals"`
}

// MonthlyCostRow is the energy cost of one month (fixed costs excluded).
type MonthlyCostRow struct {
	Month        string  `json:"month"` // YYYY-MM
	Intervals    int     `json:"intervals"`
	EnergyKWh    float64 `json:"energyKWh"`
	Cost         float64 `json:"cost"`
	AveragePrice float64 `json:"averagePrice"`
}

// PricesResponse is the body of GET /api/v1/prices.
type PricesResponse struct {
	Date   string       `json:"date"`
	Prices []PricePoint `json:"prices"`
}

type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"` // currency per kWh
}

// TariffInfo represents information about a tariff preset
type TariffInfo struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Provider        string  `json:"provider,omitempty"`
	File            string  `json:"file"`
	FixedCosts      float64 `json:"fixedCosts"`
	SurchargePerKWh float64 `json:"surchargePerKWh,omitempty"`
	Description     string  `json:"description,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
