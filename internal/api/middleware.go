package api

import (
	"net/http"
	"time"

	"github.com/banshee-data/irdecode/internal/monitoring"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// LoggingMiddleware logs method, URI, status and duration of every request
// at info level. 5xx responses are logged as errors.
func LoggingMiddleware(logger *monitoring.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		ms := float64(time.Since(start).Nanoseconds()) / 1e6
		if lrw.statusCode >= http.StatusInternalServerError {
			logger.Errorf("[%d] %s %s %.2fms", lrw.statusCode, r.Method, r.RequestURI, ms)
			return
		}
		logger.Infof("[%d] %s %s %.2fms", lrw.statusCode, r.Method, r.RequestURI, ms)
	})
}
