package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestRecordScoreSkipsHarmonyWithoutPairs(t *testing.T) {
	scored := counterValue(t, CompositionsScored)
	observed := histogramCount(t, HarmonyScore)

	RecordScore(0, 0)
	RecordScore(80, 3)

	assert.Equal(t, scored+2, counterValue(t, CompositionsScored))
	assert.Equal(t, observed+1, histogramCount(t, HarmonyScore))
}

func TestRecordSaveByKind(t *testing.T) {
	before := counterValue(t, CompositionsSaved.WithLabelValues("update"))
	RecordSave("update")
	assert.Equal(t, before+1, counterValue(t, CompositionsSaved.WithLabelValues("update")))
}

func TestMiddlewareLabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := Middleware(mux)

	matched := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /things/{id}", "418")
	unmatched := HTTPRequestsTotal.WithLabelValues(http.MethodGet, UnmatchedPath, "404")
	beforeMatched := counterValue(t, matched)
	beforeUnmatched := counterValue(t, unmatched)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/42", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, beforeMatched+1, counterValue(t, matched))
	assert.Equal(t, beforeUnmatched+1, counterValue(t, unmatched))
}

func TestMiddlewareRecordsImplicitAndFirstStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /implicit", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /twice", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.WriteHeader(http.StatusInternalServerError)
	})
	handler := Middleware(mux)

	implicit := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /implicit", "200")
	twice := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /twice", "202")
	beforeImplicit := counterValue(t, implicit)
	beforeTwice := counterValue(t, twice)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/implicit", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/twice", nil))

	assert.Equal(t, beforeImplicit+1, counterValue(t, implicit))
	assert.Equal(t, beforeTwice+1, counterValue(t, twice))
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordSave("new")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), MetricNameCompositionsSaved))
}
