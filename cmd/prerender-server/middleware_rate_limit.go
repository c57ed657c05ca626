package main

import (
	"net/http"
)

// rateLimitMiddleware enforces a global rate limiter, skipping probe and metrics paths.
func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health", "/ready", "/metrics":
			next.ServeHTTP(w, r)
			return
		}
		if !rateLimiter.Allow() {
			// Set headers before writing status/body
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			rateLimited.Inc()
			return
		}
		next.ServeHTTP(w, r)
	})
}
