package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// statusRecorder remembers the first status written for a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (s *statusRecorder) code() string {
	if s.status == 0 {
		return strconv.Itoa(http.StatusOK)
	}
	return strconv.Itoa(s.status)
}

// Middleware records request count, latency and in-flight requests, labelled
// by the ServeMux pattern that served them. next must be the mux itself;
// r.Pattern is only set once the mux has dispatched.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HTTPRequestsInFlight.Inc()
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			HTTPRequestsInFlight.Dec()
			route := r.Pattern
			if route == "" {
				route = UnmatchedPath
			}
			HTTPRequestsTotal.WithLabelValues(r.Method, route, rec.code()).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
		}()

		next.ServeHTTP(rec, r)
	})
}
