package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "tariff_"

	ResultSuccess = "success"
	ResultError   = "error"

	ModeDeterministic = "deterministic"
	ModeMonteCarlo    = "monte_carlo"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	registerOnce sync.Once

	calculationsTotal  *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec
	simulationTrials   prometheus.Counter
	priceCacheRequests *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call more than once.
// Observe helpers are no-ops until Init has run.
func Init() {
	registerOnce.Do(func() {
		calculationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculations_total",
				Help: "Total annual cost calculations by result",
			},
			[]string{"result"},
		)
		calculationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "calculation_latency_seconds",
				Help:    "Annual cost calculation latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		)
		simulationTrials = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "simulation_trials_total",
				Help: "Total bootstrap trials evaluated",
			},
		)
		priceCacheRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "price_cache_requests_total",
				Help: "Day-ahead price cache lookups by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			calculationsTotal,
			calculationLatency,
			simulationTrials,
			priceCacheRequests,
		)
	})
}

// ObserveCalculation records one calculation.
func ObserveCalculation(mode, result string, duration time.Duration) {
	if mode == "" {
		mode = ModeDeterministic
	}
	if result == "" {
		result = ResultSuccess
	}
	if calculationsTotal != nil {
		calculationsTotal.WithLabelValues(result).Inc()
	}
	if calculationLatency != nil {
		calculationLatency.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

func AddSimulationTrials(n int) {
	if n <= 0 || simulationTrials == nil {
		return
	}
	simulationTrials.Add(float64(n))
}

func IncPriceCache(result string) {
	if priceCacheRequests != nil {
		priceCacheRequests.WithLabelValues(result).Inc()
	}
}
