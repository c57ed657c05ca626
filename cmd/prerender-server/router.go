package main

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes and middleware for the server.
func setupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(loggingMiddleware)
	router.Use(requestIDMiddleware)
	router.Use(corsMiddleware)
	if rateLimiter != nil {
		router.Use(rateLimitMiddleware)
	}

	// Health check endpoints
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/ready", readyHandler).Methods("GET")

	// Server info
	router.HandleFunc("/info", infoHandler).Methods("GET")

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler())

	// Everything else is the origin application behind the prerender middleware
	router.PathPrefix("/").Handler(prerenderer.Handler(origin))

	return router
}
