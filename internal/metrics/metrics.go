package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Composer Metrics
var (
	CompositionsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCompositionsScored,
			Help: HelpTextCompositionsScored,
		},
	)

	CompositionsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCompositionsSaved,
			Help: HelpTextCompositionsSaved,
		},
		[]string{LabelKind},
	)

	HarmonyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameHarmonyScore,
			Help:    HelpTextHarmonyScore,
			Buckets: HarmonyBuckets,
		},
	)

	LuckyGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameLuckyGenerated,
			Help: HelpTextLuckyGenerated,
		},
	)

	WheelLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWheelLoads,
			Help: HelpTextWheelLoads,
		},
		[]string{LabelResult},
	)
)

// RecordScore counts one scoring run. Formulas with fewer than two
// ingredients have no harmony and are left out of the histogram.
func RecordScore(harmony int, pairs int) {
	CompositionsScored.Inc()
	if pairs > 0 {
		HarmonyScore.Observe(float64(harmony))
	}
}

// RecordSave counts a persisted composition by save kind.
func RecordSave(kind string) {
	CompositionsSaved.WithLabelValues(kind).Inc()
}

// RecordWheelLoad counts a wheel fetched from storage after a cache miss.
func RecordWheelLoad(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	WheelLoads.WithLabelValues(result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
