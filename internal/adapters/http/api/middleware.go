package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// MetricsMiddleware records request metrics under endpoint and turns handler
// panics into a 500 response.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.Get().Named("api").Error(r.Context(), "handler panicked",
					logger.String("endpoint", endpoint), logger.Any("panic", p))
				metrics.RecordErrorByComponent("http", "panic")
				if !wrapped.wroteHeader {
					writeError(wrapped, http.StatusInternalServerError, "internal_error", nil)
				}
			}

			durationMs := float64(time.Since(start).Milliseconds())
			status := strconv.Itoa(wrapped.statusCode)
			metrics.RecordHTTPRequest(endpoint, r.Method, status)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)
			if wrapped.statusCode >= http.StatusBadRequest {
				errorType := errorType(wrapped.statusCode)
				metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
				metrics.RecordErrorByType(errorType, severity(wrapped.statusCode))
				metrics.RecordErrorLatency("http", errorType, durationMs)
			}
		}()

		next.ServeHTTP(wrapped, r)
	}
}

func errorType(status int) string {
	switch {
	case status == http.StatusNotImplemented:
		return "unsupported"
	case status == http.StatusBadGateway:
		return "upstream_error"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

func severity(status int) string {
	switch {
	case status == http.StatusNotImplemented:
		return "low"
	case status >= http.StatusInternalServerError:
		return "high"
	default:
		return "medium"
	}
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
