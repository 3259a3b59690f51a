package metrics

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "organ_http_requests_total"
	MetricNameHTTPRequestDuration  = "organ_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "organ_http_requests_in_flight"
)

// Composer metric names
const (
	MetricNameCompositionsScored = "organ_compositions_scored_total"
	MetricNameCompositionsSaved  = "organ_compositions_saved_total"
	MetricNameHarmonyScore       = "organ_harmony_score"
	MetricNameLuckyGenerated     = "organ_lucky_formulas_generated_total"
	MetricNameWheelLoads         = "organ_wheel_loads_total"
)

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Composer metric help text
const (
	HelpTextCompositionsScored = "Total number of formulas scored"
	HelpTextCompositionsSaved  = "Total number of compositions saved, by kind"
	HelpTextHarmonyScore       = "Distribution of harmony scores for scored formulas"
	HelpTextLuckyGenerated     = "Total number of randomly generated formulas"
	HelpTextWheelLoads         = "Wheel loads on cache miss, by result"
)

// Label names
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelKind   = "kind"
	LabelResult = "result"
)

// Wheel load results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// UnmatchedPath labels requests that no route claimed.
const UnmatchedPath = "unmatched"

// HTTPLatencyBuckets ranges from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// HarmonyBuckets follows the score bands.
var HarmonyBuckets = []float64{0, 20, 40, 60, 80, 100}
