package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 定价结果标签。
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	CacheHit     = "hit"
	CacheMiss    = "miss"
)

func (m *Metrics) registerPricing() {
	m.PricingsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "lsm_pricings_total",
		Help: "Total number of option pricings",
	}, []string{"type", "outcome"})

	m.PricingDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lsm_pricing_duration_seconds",
		Help:    "Option pricing latency in seconds, simulation included",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"type"})

	m.ExerciseDecisions = m.NewCounterVec(prometheus.CounterOpts{
		Name: "lsm_exercise_decisions_total",
		Help: "Total number of early exercise decisions taken during backward induction",
	}, []string{"type"})

	m.RegressionFallbacks = m.NewCounterVec(prometheus.CounterOpts{
		Name: "lsm_regression_fallbacks_total",
		Help: "Total number of timesteps where the regression degree was reduced",
	}, []string{"type"})

	m.CacheRequests = m.NewCounterVec(prometheus.CounterOpts{
		Name: "lsm_cache_requests_total",
		Help: "Pricing result cache lookups",
	}, []string{"result"})
}

// ObservePricing 记录一次定价的耗时与结果，m 为 nil 时忽略。
func (m *Metrics) ObservePricing(optionType string, elapsed time.Duration, exercised, fallbacks int, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.PricingsTotal.WithLabelValues(optionType, outcome).Inc()
	m.PricingDuration.WithLabelValues(optionType).Observe(elapsed.Seconds())
	if err == nil {
		m.ExerciseDecisions.WithLabelValues(optionType).Add(float64(exercised))
		m.RegressionFallbacks.WithLabelValues(optionType).Add(float64(fallbacks))
	}
}

// ObserveCache 记录一次缓存查询。
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheRequests.WithLabelValues(CacheHit).Inc()
		return
	}
	m.CacheRequests.WithLabelValues(CacheMiss).Inc()
}
