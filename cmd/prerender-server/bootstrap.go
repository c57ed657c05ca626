package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arun0009/prerender-server/prerender"
)

var (
	configLock  sync.RWMutex
	config      Config
	startTime   time.Time
	logger      = zap.NewNop()
	rateLimiter *rate.Limiter
	prerenderer *prerender.Middleware
	origin      http.Handler
)

// initializeServer loads configuration and builds the shared components used by setupRoutes.
func initializeServer() error {
	startTime = time.Now()

	cfg := loadConfigFromEnv()
	if hostname, _ := os.Hostname(); hostname != "" {
		cfg.Hostname = hostname
	}

	fileCfg, err := loadPrerenderFile(cfg.ConfigFile)
	if err != nil {
		return err
	}
	cfg.Prerender = mergePrerender(fileCfg, cfg.Prerender)

	l, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = l

	configLock.Lock()
	config = cfg
	configLock.Unlock()

	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rateLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	if origin, err = newOriginHandler(cfg); err != nil {
		return err
	}
	prerenderer = newPrerenderer(cfg)

	registerPrometheusMetrics()
	return nil
}

// newPrerenderer wires the prerender middleware with an instrumented fetcher
// bound by the configured fetch timeout.
func newPrerenderer(cfg Config) *prerender.Middleware {
	return prerender.New(cfg.Prerender,
		prerender.WithFetcher(instrumentedFetcher{next: prerender.NewHTTPFetcherWithTimeout(cfg.FetchTimeout)}),
		prerender.WithLogger(logger.Named("prerender")),
	)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}
