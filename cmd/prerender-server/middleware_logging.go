package main

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// loggingMiddleware logs requests and records Prometheus metrics.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		configLock.RLock()
		logRequests := config.LogRequests
		logHeaders := config.LogHeaders
		configLock.RUnlock()

		if logHeaders {
			logger.Debug("request headers", zap.String("path", r.URL.Path), zap.Any("headers", r.Header))
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		prerendered := rw.Header().Get("X-Prerender")
		if prerendered == "" {
			prerendered = "none"
		}

		if logRequests {
			logger.Info("request",
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("status", rw.statusCode),
				zap.Int64("bytes", rw.written),
				zap.String("prerendered", prerendered),
				zap.String("request_id", r.Header.Get(headerRequestID)),
				zap.Duration("duration", time.Since(start)),
			)
		}

		requestLatency.Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(r.Method, strconv.Itoa(rw.statusCode), prerendered).Inc()
	})
}
