package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	if err := initializeServer(); err != nil {
		// The zap logger may not exist yet.
		os.Stderr.WriteString("prerender-server: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	router := setupRoutes()

	// Wrap the router with h2c to support HTTP/2 over cleartext
	handler := h2c.NewHandler(router, &http2.Server{})

	configLock.RLock()
	port := config.Port
	pc := prerenderer.Config()
	configLock.RUnlock()

	// WriteTimeout must cover a slow rendering service plus the origin.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("prerender server starting",
		zap.String("port", port),
		zap.String("prerender_service", pc.Prerender),
		zap.Bool("token_set", pc.PrerenderToken != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- startServer(server) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
