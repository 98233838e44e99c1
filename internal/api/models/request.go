package models

// CalculateRequest is the body of POST /api/v1/calculate.
// Optional fields are pointers so that "absent" and "zero" stay distinguishable.
type CalculateRequest struct {
	CSVData2024 string             `json:"csvData2024"`
	CSVData2025 string             `json:"csvData2025"`
	BaseLoad    *float64           `json:"baseLoad" binding:"required"`
	WPProfile   map[string]float64 `json:"wpProfile,omitempty"` // heat pump, ISO timestamp -> kWh per interval
	EVProfile   map[string]float64 `json:"evProfile,omitempty"`
	FixedCosts  *float64           `json:"fixedCosts,omitempty"` // default 0, or the tariff preset's
	Year        string             `json:"year" binding:"required"`

	MonteCarlo   bool    `json:"monteCarlo,omitempty"`
	MCIterations *int    `json:"mcIterations,omitempty"`
	MCBlockDays  *int    `json:"mcBlockDays,omitempty"`
	Seed         *uint64 `json:"seed,omitempty"` // default: random per request

	Tariff         string `json:"tariff,omitempty"` // preset id from GET /api/v1/tariffs
	IncludeMonthly bool   `json:"includeMonthly,omitempty"`
}

// PricesQuery is the query of GET /api/v1/prices.
type PricesQuery struct {
	Date     string `form:"date" binding:"required"` // YYYY-MM-DD
	Timezone string `form:"tz,omitempty"`            // default: UTC
}
